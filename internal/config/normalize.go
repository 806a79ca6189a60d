package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScript()
	c.normalizeOpenAI()
	c.normalizeLLM()
	c.normalizeSpeech()
	c.normalizeAlignment()
	if err := c.normalizeCaptions(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizePublish()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.BackgroundDir, err = expandPath(strings.TrimSpace(c.Paths.BackgroundDir)); err != nil {
		return fmt.Errorf("paths.background_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScript() {
	c.Script.Provider = strings.ToLower(strings.TrimSpace(c.Script.Provider))
	if c.Script.Provider == "" {
		c.Script.Provider = defaultScriptProvider
	}
	c.Script.Template = strings.ToLower(strings.TrimSpace(c.Script.Template))
	if c.Script.Template == "auto" {
		c.Script.Template = ""
	}
	c.Script.StartDate = strings.TrimSpace(c.Script.StartDate)
	if c.Script.StartDate == "" {
		c.Script.StartDate = defaultScriptStartDate
	}
	if file := strings.TrimSpace(c.Script.TemplateFile); file != "" {
		if expanded, err := expandPath(file); err == nil {
			file = expanded
		}
		c.Script.TemplateFile = file
	}
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = lookupEnv("OPENAI_API_KEY")
	}
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = lookupEnv("OPENROUTER_API_KEY")
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultOpenRouterBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultOpenRouterModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		c.Speech.APIKey = lookupEnv("ELEVENLABS_API_KEY")
	}
	c.Speech.BaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.BaseURL), "/")
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.VoiceID = strings.TrimSpace(c.Speech.VoiceID)
	c.Speech.ModelID = strings.TrimSpace(c.Speech.ModelID)
	c.Speech.OutputFormat = strings.ToLower(strings.TrimSpace(c.Speech.OutputFormat))
	if c.Speech.OutputFormat == "" {
		c.Speech.OutputFormat = defaultSpeechOutputFormat
	}
}

func (c *Config) normalizeAlignment() {
	c.Alignment.Provider = strings.ToLower(strings.TrimSpace(c.Alignment.Provider))
	if c.Alignment.Provider == "" {
		c.Alignment.Provider = defaultAlignmentProvider
	}
	c.Alignment.Model = strings.TrimSpace(c.Alignment.Model)
	if c.Alignment.Model == "" {
		c.Alignment.Model = defaultAlignmentModel
	}
	c.Alignment.WhisperXModel = strings.TrimSpace(c.Alignment.WhisperXModel)
	if c.Alignment.WhisperXModel == "" {
		c.Alignment.WhisperXModel = defaultWhisperXModel
	}
	c.Alignment.Language = strings.TrimSpace(c.Alignment.Language)
}

func (c *Config) normalizeCaptions() error {
	c.Captions.FontName = strings.TrimSpace(c.Captions.FontName)
	if c.Captions.FontName == "" {
		c.Captions.FontName = defaultCaptionFont
	}
	c.Captions.PrimaryColor = strings.ToUpper(strings.TrimSpace(c.Captions.PrimaryColor))
	c.Captions.OutlineColor = strings.ToUpper(strings.TrimSpace(c.Captions.OutlineColor))
	if dir := strings.TrimSpace(c.Captions.FontsDir); dir != "" {
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("captions.fonts_dir: %w", err)
		}
		c.Captions.FontsDir = expanded
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.VideoCodec = strings.TrimSpace(c.Render.VideoCodec)
	c.Render.AudioCodec = strings.TrimSpace(c.Render.AudioCodec)
	c.Render.VideoBitrate = strings.TrimSpace(c.Render.VideoBitrate)
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
	c.Render.OutputName = strings.TrimSpace(c.Render.OutputName)
	if c.Render.OutputName == "" {
		c.Render.OutputName = defaultOutputName
	}
	exts := make([]string, 0, len(c.Render.Extensions))
	seen := make(map[string]struct{}, len(c.Render.Extensions))
	for _, ext := range c.Render.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultBackgroundExtensions...)
	}
	c.Render.Extensions = exts
}

func (c *Config) normalizePublish() {
	c.Publish.APIKey = strings.TrimSpace(c.Publish.APIKey)
	if c.Publish.APIKey == "" {
		c.Publish.APIKey = lookupEnv("UPLOAD_POST_API_KEY")
	}
	c.Publish.BaseURL = strings.TrimRight(strings.TrimSpace(c.Publish.BaseURL), "/")
	if c.Publish.BaseURL == "" {
		c.Publish.BaseURL = defaultPublishBaseURL
	}
	c.Publish.User = strings.TrimSpace(c.Publish.User)
	c.Publish.FallbackTitle = strings.TrimSpace(c.Publish.FallbackTitle)
	if c.Publish.FallbackTitle == "" {
		c.Publish.FallbackTitle = defaultPublishFallback
	}
	c.Publish.Platforms = trimList(c.Publish.Platforms, true)
	hashtags := trimList(c.Publish.Hashtags, false)
	for i, tag := range hashtags {
		hashtags[i] = strings.TrimLeft(tag, "#")
	}
	c.Publish.Hashtags = hashtags
	c.Publish.Tags = trimList(c.Publish.Tags, false)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = lookupEnv("NTFY_TOPIC")
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "text":
		format = defaultLogFormat
	}
	c.Logging.Format = format
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch level {
	case "":
		level = defaultLogLevel
	case "warning":
		level = "warn"
	}
	c.Logging.Level = level
}

func trimList(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if lower {
			value = strings.ToLower(value)
		}
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}

func lookupEnv(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
