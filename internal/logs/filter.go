package logs

import (
	"encoding/json"
	"strings"
)

// Filters narrows followed or tailed lines. Empty fields match everything.
type Filters struct {
	RunID     string
	Stage     string
	Component string
	Level     string
	Search    string
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return strings.TrimSpace(f.RunID) == "" &&
		strings.TrimSpace(f.Stage) == "" &&
		strings.TrimSpace(f.Component) == "" &&
		strings.TrimSpace(f.Level) == "" &&
		strings.TrimSpace(f.Search) == ""
}

// Match checks a JSON log line against f. Lines that are not JSON only match
// a search filter.
func (f Filters) Match(line string) bool {
	if f.Empty() {
		return true
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		if !strings.Contains(strings.ToLower(line), strings.ToLower(search)) {
			return false
		}
	}
	structured := strings.TrimSpace(f.RunID) != "" ||
		strings.TrimSpace(f.Stage) != "" ||
		strings.TrimSpace(f.Component) != "" ||
		strings.TrimSpace(f.Level) != ""
	if !structured {
		return true
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return false
	}
	return fieldMatches(record, "run_id", f.RunID) &&
		fieldMatches(record, "stage", f.Stage) &&
		fieldMatches(record, "component", f.Component) &&
		levelAtLeast(record, f.Level)
}

// Apply returns the lines that match f.
func (f Filters) Apply(lines []string) []string {
	if f.Empty() {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if f.Match(line) {
			out = append(out, line)
		}
	}
	return out
}

func fieldMatches(record map[string]any, key, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	got, _ := record[key].(string)
	return strings.EqualFold(got, want)
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

func levelAtLeast(record map[string]any, min string) bool {
	min = strings.ToLower(strings.TrimSpace(min))
	if min == "" {
		return true
	}
	want, ok := levelRank[min]
	if !ok {
		return true
	}
	got, _ := record["level"].(string)
	rank, ok := levelRank[strings.ToLower(got)]
	return ok && rank >= want
}
