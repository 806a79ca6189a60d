package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

var colorPattern = regexp.MustCompile(`^#([0-9A-F]{6}|[0-9A-F]{8})$`)

// Validate ensures the configuration is usable. Credentials are not checked
// here so that offline commands (segment, history, config show) work without
// them; the run command calls ValidateCredentials.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validatePaths,
		c.validateScript,
		c.validateSpeech,
		c.validateAlignment,
		c.validateCaptions,
		c.validateRender,
		c.validatePublish,
		c.validateTimeouts,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCredentials reports the first API key required by the configured
// providers that is missing.
func (c *Config) ValidateCredentials(publish bool) error {
	switch c.Script.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return missingKey("openai.api_key", "OPENAI_API_KEY")
		}
	case ProviderOpenRouter:
		if c.LLM.APIKey == "" {
			return missingKey("llm.api_key", "OPENROUTER_API_KEY")
		}
	}
	if c.Speech.APIKey == "" {
		return missingKey("speech.api_key", "ELEVENLABS_API_KEY")
	}
	if c.Alignment.Provider == AlignerWhisper && c.OpenAI.APIKey == "" {
		return missingKey("openai.api_key", "OPENAI_API_KEY")
	}
	if publish && c.Publish.Enabled && c.Publish.APIKey == "" {
		return missingKey("publish.api_key", "UPLOAD_POST_API_KEY")
	}
	return nil
}

func missingKey(field, env string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/reelgen/config.toml"
	}
	return fmt.Errorf("%s is required. Set %s env var or edit %s (create with 'reelgen config init')", field, env, defaultPath)
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.BackgroundDir == "" {
		return errors.New("paths.background_dir must be set")
	}
	return nil
}

func (c *Config) validateScript() error {
	switch c.Script.Provider {
	case ProviderOpenAI, ProviderOpenRouter:
	default:
		return fmt.Errorf("script.provider: unsupported value %q (want openai or openrouter)", c.Script.Provider)
	}
	switch c.Script.Template {
	case "", "default", "duolingo", "file":
	default:
		return fmt.Errorf("script.template: unsupported value %q (want auto, default, duolingo or file)", c.Script.Template)
	}
	if c.Script.Template == "file" && c.Script.TemplateFile == "" {
		return errors.New("script.template_file must be set when script.template is file")
	}
	if c.Script.Temperature < 0 || c.Script.Temperature > 2 {
		return errors.New("script.temperature must be between 0 and 2")
	}
	if _, err := c.ScriptStartDate(); err != nil {
		return err
	}
	start, end := c.Script.MorningStartHour, c.Script.MorningEndHour
	if start < 0 || start > 23 || end < 0 || end > 24 {
		return errors.New("script.morning_start_hour and script.morning_end_hour must be within 0..24")
	}
	if start > end {
		return errors.New("script.morning_start_hour must not be after script.morning_end_hour")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if c.Speech.VoiceID == "" {
		return errors.New("speech.voice_id must be set")
	}
	if c.Speech.ModelID == "" {
		return errors.New("speech.model_id must be set")
	}
	if !strings.HasPrefix(c.Speech.OutputFormat, "mp3_") {
		return fmt.Errorf("speech.output_format: unsupported value %q (only mp3_* formats can be probed and muxed)", c.Speech.OutputFormat)
	}
	return nil
}

func (c *Config) validateAlignment() error {
	switch c.Alignment.Provider {
	case AlignerWhisper, AlignerWhisperX:
	default:
		return fmt.Errorf("alignment.provider: unsupported value %q (want whisper or whisperx)", c.Alignment.Provider)
	}
	if c.Alignment.Language != "" {
		if _, err := c.AlignmentLanguage(); err != nil {
			return err
		}
	}
	return nil
}

// AlignmentLanguage returns the ISO-639-1 code for alignment.language, or an
// empty string when the language should be detected automatically.
func (c *Config) AlignmentLanguage() (string, error) {
	raw := c.Alignment.Language
	if raw == "" {
		return "", nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("alignment.language: %q is not a valid language tag: %w", raw, err)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("alignment.language: %q has no base language", raw)
	}
	return base.String(), nil
}

func (c *Config) validateCaptions() error {
	if c.Captions.MaxSpanSeconds <= 0 {
		return errors.New("captions.max_span_seconds must be positive")
	}
	if c.Captions.FontSize <= 0 {
		return errors.New("captions.font_size must be positive")
	}
	if c.Captions.MarginVertical < 0 {
		return errors.New("captions.margin_vertical must be >= 0")
	}
	for field, value := range map[string]string{
		"captions.primary_color": c.Captions.PrimaryColor,
		"captions.outline_color": c.Captions.OutlineColor,
	} {
		if value != "" && !colorPattern.MatchString(value) {
			return fmt.Errorf("%s: %q must be #RRGGBB or #AARRGGBB", field, value)
		}
	}
	return nil
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.width":  c.Render.Width,
		"render.height": c.Render.Height,
		"render.fps":    c.Render.FPS,
	}); err != nil {
		return err
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return errors.New("render.width and render.height must be even for yuv420p output")
	}
	if c.Render.VideoCodec == "" || c.Render.AudioCodec == "" {
		return errors.New("render.video_codec and render.audio_codec must be set")
	}
	if strings.ContainsAny(c.Render.OutputName, `/\`) {
		return errors.New("render.output_name must be a file name, not a path")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	if c.Publish.User == "" {
		return errors.New("publish.user must be set when publish.enabled is true")
	}
	if len(c.Publish.Platforms) == 0 {
		return errors.New("publish.platforms must include at least one platform when publish.enabled is true")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if c.OpenAI.MaxRetries < 0 {
		return errors.New("openai.max_retries must be >= 0")
	}
	return ensurePositiveMap(map[string]int{
		"openai.timeout_seconds":        c.OpenAI.TimeoutSeconds,
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"speech.timeout_seconds":        c.Speech.TimeoutSeconds,
		"publish.timeout_seconds":       c.Publish.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
