package script

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Template names accepted by configuration.
const (
	TemplateDefault  = "default"
	TemplateDuolingo = "duolingo"
	TemplateFile     = "file"
)

const (
	dayPlaceholder     = "{day}"
	nextDayPlaceholder = "{next_day}"
)

var (
	// ErrMissingDayPlaceholder rejects templates that never mention the day.
	ErrMissingDayPlaceholder = errors.New("script: template has no {day} placeholder")
	// ErrEmptyScript means the generator returned nothing usable.
	ErrEmptyScript = errors.New("script: generator returned an empty script")
)

//go:embed templates/default.txt
var defaultTemplate string

//go:embed templates/duolingo.txt
var duolingoTemplate string

// Builtin returns the embedded template for name.
func Builtin(name string) (string, bool) {
	switch name {
	case TemplateDefault:
		return defaultTemplate, true
	case TemplateDuolingo:
		return duolingoTemplate, true
	default:
		return "", false
	}
}

// LoadTemplate reads a custom template file and checks its placeholders.
func LoadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("script: read template %s: %w", path, err)
	}
	tmpl := string(data)
	if !strings.Contains(tmpl, dayPlaceholder) {
		return "", fmt.Errorf("%w: %s", ErrMissingDayPlaceholder, path)
	}
	return tmpl, nil
}

// Render substitutes {day} and {next_day} into tmpl.
func Render(tmpl string, day int) (string, error) {
	if !strings.Contains(tmpl, dayPlaceholder) {
		return "", ErrMissingDayPlaceholder
	}
	replacer := strings.NewReplacer(
		dayPlaceholder, strconv.Itoa(day),
		nextDayPlaceholder, strconv.Itoa(day+1),
	)
	return strings.TrimSpace(replacer.Replace(tmpl)), nil
}

// DayNumber counts calendar days from start to now, starting at 1 on the
// start date itself. Dates before start give zero or negative numbers.
func DayNumber(start, now time.Time) int {
	now = now.In(start.Location())
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours()/24) + 1
}

// Schedule decides which built-in template applies at a given time.
type Schedule struct {
	// Forced names a template that always wins; empty means time based.
	Forced       string
	MorningStart int
	MorningEnd   int
}

// Choose returns the duolingo template during the morning window
// [MorningStart, MorningEnd) and the default template otherwise.
func (s Schedule) Choose(now time.Time) string {
	if s.Forced != "" {
		return s.Forced
	}
	if hour := now.Hour(); s.MorningStart <= hour && hour < s.MorningEnd {
		return TemplateDuolingo
	}
	return TemplateDefault
}
