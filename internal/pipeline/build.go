package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"reelgen/internal/alignment"
	"reelgen/internal/background"
	"reelgen/internal/captions"
	"reelgen/internal/config"
	"reelgen/internal/history"
	"reelgen/internal/logging"
	"reelgen/internal/media/ffmpeg"
	"reelgen/internal/media/ffprobe"
	"reelgen/internal/notifications"
	"reelgen/internal/publish"
	"reelgen/internal/render"
	"reelgen/internal/script"
	"reelgen/internal/services/elevenlabs"
	"reelgen/internal/services/llm"
	"reelgen/internal/services/openaiapi"
	"reelgen/internal/services/whisperx"
)

// Build wires the production stage implementations from cfg. The history
// store doubles as the transcript cache when alignment caching is enabled.
func Build(cfg *config.Config, store *history.Store, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: config required")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: history store required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	openai := openaiapi.NewClient(openaiapi.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.Model,
		Temperature:    cfg.Script.Temperature,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		MaxRetries:     cfg.OpenAI.MaxRetries,
	})

	source, err := NewScriptSource(cfg, openai, logger)
	if err != nil {
		return nil, err
	}
	aligner, err := NewAligner(cfg, openai, store, logger)
	if err != nil {
		return nil, err
	}

	runner := ffmpeg.Exec{Binary: cfg.FFmpegBinary()}
	probe := ProbeDuration(cfg.FFprobeBinary())

	deps := Deps{
		Script: source,
		Speech: elevenlabs.NewClient(elevenlabs.Config{
			APIKey:         cfg.Speech.APIKey,
			BaseURL:        cfg.Speech.BaseURL,
			TimeoutSeconds: cfg.Speech.TimeoutSeconds,
		}),
		Aligner: aligner,
		Probe:   probe,
		Looper: &background.Looper{
			Runner: runner,
			Probe:  probe,
			Width:  cfg.Render.Width,
			Height: cfg.Render.Height,
			FPS:    cfg.Render.FPS,
			Logger: logging.NewComponentLogger(logger, "background"),
		},
		Renderer: &render.Renderer{
			Runner:   runner,
			Settings: RenderSettings(cfg),
			Style:    CaptionStyle(cfg),
			Inspect:  InspectOutput(cfg.FFprobeBinary()),
			Logger:   logging.NewComponentLogger(logger, "render"),
		},
		History:  store,
		Notifier: notifications.NewService(cfg),
	}
	if cfg.Publish.Enabled {
		deps.Publisher = publish.NewClient(publish.Config{
			APIKey:         cfg.Publish.APIKey,
			BaseURL:        cfg.Publish.BaseURL,
			TimeoutSeconds: cfg.Publish.TimeoutSeconds,
		})
	}
	return New(cfg, deps, logger)
}

// NewScriptSource picks the chat provider named by script.provider.
func NewScriptSource(cfg *config.Config, openai *openaiapi.Client, logger *slog.Logger) (*script.Source, error) {
	start, err := cfg.ScriptStartDate()
	if err != nil {
		return nil, err
	}
	var generator script.Generator
	switch cfg.Script.Provider {
	case config.ProviderOpenRouter:
		settings := cfg.GetLLM()
		generator = llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			Temperature:    settings.Temperature,
			TimeoutSeconds: settings.TimeoutSeconds,
		})
	case config.ProviderOpenAI, "":
		generator = openai
	default:
		return nil, fmt.Errorf("script.provider: unsupported value %q", cfg.Script.Provider)
	}
	return &script.Source{
		Generator: generator,
		Schedule: script.Schedule{
			Forced:       cfg.Script.Template,
			MorningStart: cfg.Script.MorningStartHour,
			MorningEnd:   cfg.Script.MorningEndHour,
		},
		StartDate:    start,
		TemplateFile: cfg.Script.TemplateFile,
		Logger:       logging.NewComponentLogger(logger, "script"),
	}, nil
}

// NewAligner picks the alignment backend and wraps it with the transcript
// cache when enabled.
func NewAligner(cfg *config.Config, openai *openaiapi.Client, store *history.Store, logger *slog.Logger) (alignment.Aligner, error) {
	lang, err := cfg.AlignmentLanguage()
	if err != nil {
		return nil, err
	}
	var aligner alignment.Aligner
	switch cfg.Alignment.Provider {
	case config.AlignerWhisperX:
		aligner = &alignment.WhisperX{
			Service: whisperx.NewService(whisperx.Config{
				Model:       cfg.Alignment.WhisperXModel,
				CUDAEnabled: cfg.Alignment.WhisperXCUDAEnabled,
				Language:    lang,
			}, cfg.FFmpegBinary()),
		}
	case config.AlignerWhisper, "":
		aligner = &alignment.Whisper{Client: openai, Model: cfg.Alignment.Model, Language: lang}
	default:
		return nil, fmt.Errorf("alignment.provider: unsupported value %q", cfg.Alignment.Provider)
	}
	if cfg.Alignment.CacheEnabled && store != nil {
		aligner = &alignment.Cached{
			Inner:  aligner,
			Store:  store,
			Logger: logging.NewComponentLogger(logger, "alignment"),
		}
	}
	return aligner, nil
}

// ProbeDuration measures media duration with ffprobe.
func ProbeDuration(binary string) background.ProbeFunc {
	return func(ctx context.Context, path string) (float64, error) {
		result, err := ffprobe.Inspect(ctx, binary, path)
		if err != nil {
			return 0, err
		}
		return result.Duration()
	}
}

// InspectOutput probes rendered files for verification.
func InspectOutput(binary string) render.InspectFunc {
	return func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, binary, path)
	}
}

// RenderSettings maps the render section onto encoder settings.
func RenderSettings(cfg *config.Config) render.Settings {
	return render.Settings{
		Width:        cfg.Render.Width,
		Height:       cfg.Render.Height,
		FPS:          cfg.Render.FPS,
		VideoCodec:   cfg.Render.VideoCodec,
		AudioCodec:   cfg.Render.AudioCodec,
		VideoBitrate: cfg.Render.VideoBitrate,
		Preset:       cfg.Render.Preset,
		FontsDir:     cfg.Captions.FontsDir,
		WriteSRT:     cfg.Render.WriteSRTSidecar,
	}
}

// CaptionStyle maps the captions section onto the burned-in style.
func CaptionStyle(cfg *config.Config) captions.Style {
	return captions.Style{
		FontName:       cfg.Captions.FontName,
		FontSize:       cfg.Captions.FontSize,
		PrimaryColor:   cfg.Captions.PrimaryColor,
		OutlineColor:   cfg.Captions.OutlineColor,
		Bold:           cfg.Captions.Bold,
		MarginVertical: cfg.Captions.MarginVertical,
	}
}
