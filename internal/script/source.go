package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelgen/internal/logging"
)

// Generator turns a prompt into text.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Script is one generated narration.
type Script struct {
	Text     string
	Template string
	Day      int
	Prompt   string
	Model    string
}

// Source renders the day's prompt and asks the generator for a script.
type Source struct {
	Generator    Generator
	Schedule     Schedule
	StartDate    time.Time
	TemplateFile string
	Logger       *slog.Logger
}

// Options override the automatic template and day selection for one run.
type Options struct {
	Template string
	Day      int
}

// Produce generates the script for now.
func (s *Source) Produce(ctx context.Context, now time.Time, opts Options) (Script, error) {
	if s.Generator == nil {
		return Script{}, fmt.Errorf("script: generator required")
	}
	day := opts.Day
	if day == 0 {
		day = DayNumber(s.StartDate, now)
	}
	name := opts.Template
	if name == "" {
		name = s.Schedule.Choose(now)
	}

	tmpl, err := s.template(name)
	if err != nil {
		return Script{}, err
	}
	prompt, err := Render(tmpl, day)
	if err != nil {
		return Script{}, fmt.Errorf("script template %s: %w", name, err)
	}

	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Info("generating script",
		logging.String("template", name),
		logging.Int("day", day),
		logging.String("model", s.Generator.Model()),
	)

	text, err := s.Generator.Complete(ctx, prompt)
	if err != nil {
		return Script{}, fmt.Errorf("script generate: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Script{}, ErrEmptyScript
	}
	return Script{Text: text, Template: name, Day: day, Prompt: prompt, Model: s.Generator.Model()}, nil
}

func (s *Source) template(name string) (string, error) {
	if name == TemplateFile {
		if s.TemplateFile == "" {
			return "", fmt.Errorf("script: template file not configured")
		}
		return LoadTemplate(s.TemplateFile)
	}
	tmpl, ok := Builtin(name)
	if !ok {
		return "", fmt.Errorf("script: unknown template %q", name)
	}
	return tmpl, nil
}
