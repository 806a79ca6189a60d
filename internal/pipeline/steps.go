package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelgen/internal/alignment"
	"reelgen/internal/background"
	"reelgen/internal/captions"
	"reelgen/internal/history"
	"reelgen/internal/logging"
	"reelgen/internal/notifications"
	"reelgen/internal/publish"
	"reelgen/internal/render"
	"reelgen/internal/script"
	"reelgen/internal/services"
	"reelgen/internal/services/elevenlabs"
	"reelgen/internal/textutil"
)

func (s *runState) generateScript(ctx context.Context, logger *slog.Logger) error {
	sc, err := s.p.deps.Script.Produce(ctx, s.started, script.Options{
		Template: s.opts.Template,
		Day:      s.opts.Day,
	})
	if err != nil {
		marker := services.ErrExternalTool
		if errors.Is(err, script.ErrEmptyScript) || errors.Is(err, script.ErrMissingDayPlaceholder) {
			marker = services.ErrValidation
		}
		return services.Wrap(marker, StageScript, "generate", "", err)
	}
	s.script = sc
	s.record.Day = sc.Day
	s.record.Template = sc.Template
	s.record.Script = sc.Text
	s.report.Day = sc.Day
	s.report.Template = sc.Template
	s.report.Script = sc.Text
	s.persist(ctx)
	logger.Info("script ready",
		logging.Int("day", sc.Day),
		logging.String("template", sc.Template),
		logging.String("model", sc.Model),
		logging.Int("characters", len(sc.Text)),
	)
	return nil
}

func (s *runState) synthesize(ctx context.Context, logger *slog.Logger) error {
	speech := s.p.cfg.Speech
	audioPath := s.dir.File("speech." + audioExtension(speech.OutputFormat))
	f, err := os.Create(audioPath)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, StageSpeech, "create audio file", audioPath, err)
	}
	result, err := s.p.deps.Speech.Synthesize(ctx, elevenlabs.Request{
		Text:         s.script.Text,
		VoiceID:      speech.VoiceID,
		ModelID:      speech.ModelID,
		OutputFormat: speech.OutputFormat,
	}, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageSpeech, "synthesize", "", err)
	}

	duration, err := s.p.deps.Probe(ctx, audioPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageSpeech, "probe duration", audioPath, err)
	}
	if duration <= 0 {
		return services.Wrap(services.ErrValidation, StageSpeech, "probe duration", fmt.Sprintf("audio duration %.3fs", duration), nil)
	}
	s.audioPath = audioPath
	s.duration = duration
	s.record.AudioSeconds = duration
	s.report.AudioSeconds = duration
	s.persist(ctx)
	logger.Info("speech synthesized",
		logging.Int64("bytes", result.Bytes),
		logging.Float64("duration_seconds", duration),
		logging.String("request_id", result.RequestID),
	)
	return nil
}

func (s *runState) align(ctx context.Context, logger *slog.Logger) error {
	aligner := s.p.deps.Aligner
	words, err := aligner.Align(ctx, s.audioPath)
	if err != nil {
		marker := services.ErrExternalTool
		if errors.Is(err, alignment.ErrEmptyTranscript) {
			marker = services.ErrValidation
		}
		return services.Wrap(marker, StageAlignment, aligner.Name(), "", err)
	}
	words, repairs := alignment.Tidy(words)
	if len(words) == 0 {
		return services.Wrap(services.ErrValidation, StageAlignment, aligner.Name(), "", alignment.ErrEmptyTranscript)
	}
	if repairs.Total() > 0 {
		logging.WarnWithContext(logger, "transcript timing repaired", "transcript_repaired",
			logging.String("aligner", aligner.Name()),
			logging.Int("blank_dropped", repairs.Blank),
			logging.Int("starts_clamped", repairs.Clamped),
			logging.Int("zero_length_merged", repairs.Merged),
			logging.String(logging.FieldImpact, "some words nudged up to 10ms or joined to a neighbour"),
		)
	}
	s.words = words
	s.record.WordCount = len(words)
	s.report.Words = len(words)
	s.report.Coverage = transcriptCoverage(s.script.Text, words)
	logger.Info("words aligned",
		logging.String("aligner", aligner.Name()),
		logging.Int("words", len(words)),
		logging.Float64("speech_end", words[len(words)-1].End),
		logging.Float64("script_coverage", s.report.Coverage),
	)
	if s.report.Coverage < minScriptCoverage {
		logging.WarnWithContext(logger, "transcript drifts from script", "transcript_mismatch",
			logging.Float64("script_coverage", s.report.Coverage),
			logging.String(logging.FieldImpact, "captions follow what was heard, not the script"),
			logging.String(logging.FieldErrorHint, "check the voice output or alignment language"),
		)
	}
	return nil
}

// transcriptCoverage is the share of script tokens heard in the transcript.
func transcriptCoverage(scriptText string, words []captions.WordInterval) float64 {
	heard := make([]string, len(words))
	for i, w := range words {
		heard[i] = w.Text
	}
	return textutil.Coverage(textutil.NewFingerprint(scriptText), textutil.NewFingerprint(strings.Join(heard, " ")))
}

func (s *runState) segment(ctx context.Context, logger *slog.Logger) error {
	maxSpan := s.p.cfg.Captions.MaxSpanSeconds
	cards, err := captions.Segment(s.words, maxSpan)
	if err != nil {
		return services.Wrap(services.ErrValidation, StageSegment, "group words", "", err)
	}
	s.cards = cards
	s.record.CardCount = len(cards)
	s.report.Cards = len(cards)
	s.persist(ctx)
	summary := captions.Stats(cards, maxSpan)
	logger.Info("captions segmented",
		logging.Int("cards", summary.Cards),
		logging.Int("words", summary.Words),
		logging.Float64("longest_span", summary.LongestSpan),
		logging.Int("oversized", summary.Oversized),
	)
	return nil
}

func (s *runState) loopBackground(ctx context.Context, logger *slog.Logger) error {
	cfg := s.p.cfg
	source, err := s.p.deps.Background(cfg.Paths.BackgroundDir, cfg.Render.Extensions)
	if err != nil {
		marker := services.ErrConfiguration
		if errors.Is(err, background.ErrNoBackgroundAsset) {
			marker = services.ErrNotFound
		}
		return services.Wrap(marker, StageBackground, "select clip", cfg.Paths.BackgroundDir, err)
	}
	result, err := s.p.deps.Looper.Loop(ctx, source, s.duration, s.dir.File("background.mp4"))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageBackground, "loop clip", filepath.Base(source), err)
	}
	s.loopPath = result.Path
	s.record.Background = source
	s.report.Background = source
	logger.Info("background prepared",
		logging.String("source", filepath.Base(source)),
		logging.Int("copies", result.Copies),
		logging.Float64("source_seconds", result.SourceDuration),
	)
	return nil
}

func (s *runState) render(ctx context.Context, logger *slog.Logger) error {
	output := strings.TrimSpace(s.opts.OutputPath)
	if output == "" {
		output = s.p.cfg.OutputPath(s.script.Day)
	}
	result, err := s.p.deps.Renderer.Render(ctx, render.Request{
		Background: s.loopPath,
		Audio:      s.audioPath,
		Cards:      s.cards,
		Output:     output,
		Duration:   s.duration,
		WorkDir:    s.dir.Path,
	})
	if err != nil {
		marker := services.ErrExternalTool
		if errors.Is(err, render.ErrInvalidOutput) {
			marker = services.ErrValidation
		}
		return services.Wrap(marker, StageRender, "encode", output, err)
	}
	s.output = result.Output
	s.record.OutputPath = result.Output
	s.record.Status = history.StatusRendered
	s.report.Output = result.Output
	s.report.SRTPath = result.SRTPath
	s.persist(ctx)
	logger.Info("reel rendered",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", result.Output),
		logging.Int64("size_bytes", result.SizeBytes),
		logging.Duration("encode_duration", result.Elapsed),
	)
	s.notify(ctx, notifications.EventRunCompleted, notifications.Payload{
		"day":      s.script.Day,
		"output":   result.Output,
		"cards":    len(s.cards),
		"duration": s.duration,
	})
	return nil
}

// distribute uploads the rendered file when publishing is enabled and closes
// the run record.
func (s *runState) distribute(ctx context.Context) error {
	cfg := s.p.cfg.Publish
	if !cfg.Enabled || s.opts.SkipPublish || s.p.deps.Publisher == nil {
		s.logger.Info("publish skipped",
			logging.Bool("enabled", cfg.Enabled),
			logging.Bool("skip_requested", s.opts.SkipPublish),
		)
		s.finish(ctx, history.StatusRendered)
		s.logger.Info("run completed", logging.String(logging.FieldEventType, "run_complete"), logging.Duration("elapsed", s.report.Elapsed))
		return nil
	}

	s.current = StagePublish
	stageCtx := services.WithStage(ctx, StagePublish)
	logger := logging.WithContext(stageCtx, s.p.logger)
	title := publish.Title(s.script.Text, publish.TitleOptions{
		Suffix:   cfg.TitleSuffix,
		Fallback: cfg.FallbackTitle,
		Hashtags: cfg.Hashtags,
	})
	s.report.Title = title
	logger.Info("uploading reel",
		logging.String("title", firstLine(title)),
		logging.String("platforms", strings.Join(cfg.Platforms, ",")),
	)

	resp, err := s.p.deps.Publisher.Upload(stageCtx, publish.Upload{
		VideoPath:   s.output,
		Title:       title,
		User:        cfg.User,
		Platforms:   cfg.Platforms,
		Description: cfg.Description,
		Tags:        cfg.Tags,
	})
	if err != nil {
		wrapped := services.Wrap(services.ErrExternalTool, StagePublish, "upload", s.output, err)
		s.record.ErrorMessage = wrapped.Error()
		s.finish(ctx, history.StatusPublishFailed)
		logger.Error("upload failed; rendered file kept",
			logging.String("output", s.output),
			logging.Error(err),
			logging.String(logging.FieldEventType, "publish_failed"),
			logging.String(logging.FieldErrorHint, "rerun the upload manually or check publish.api_key"),
		)
		s.notify(context.WithoutCancel(ctx), notifications.EventPublishFailed, notifications.Payload{
			"error":  err.Error(),
			"output": s.output,
		})
		return wrapped
	}

	s.report.Published = true
	s.report.Response = resp
	if encoded, err := json.Marshal(resp); err == nil {
		s.record.PublishResponse = string(encoded)
	}
	s.finish(ctx, history.StatusPublished)
	logger.Info("reel published",
		logging.String(logging.FieldEventType, "publish_complete"),
		logging.Duration("elapsed", s.report.Elapsed),
	)
	s.notify(ctx, notifications.EventPublished, notifications.Payload{
		"title":     firstLine(title),
		"platforms": strings.Join(cfg.Platforms, ", "),
	})
	return nil
}

// audioExtension maps an ElevenLabs output format such as mp3_44100_128 to a
// file extension.
func audioExtension(format string) string {
	codec, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(format)), "_")
	if codec == "" {
		return "mp3"
	}
	return codec
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
