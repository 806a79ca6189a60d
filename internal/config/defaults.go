package config

const (
	defaultOutputDir          = "~/Videos/reelgen"
	defaultBackgroundDir      = "~/Videos/backgrounds"
	defaultStateDir           = "~/.local/share/reelgen"
	defaultLogDir             = "~/.local/share/reelgen/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultScriptProvider     = ProviderOpenAI
	defaultOpenAIModel        = "gpt-4"
	defaultScriptTemperature  = 0.8
	defaultScriptStartDate    = "2025-05-26"
	defaultMorningStartHour   = 3
	defaultMorningEndHour     = 10
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultOpenAITimeout      = 120
	defaultOpenAIMaxRetries   = 2
	defaultOpenRouterBaseURL  = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel    = "google/gemini-3-flash-preview"
	defaultOpenRouterReferer  = "https://github.com/reelgen/reelgen"
	defaultOpenRouterTitle    = "reelgen script"
	defaultLLMTimeoutSeconds  = 60
	defaultSpeechBaseURL      = "https://api.elevenlabs.io"
	defaultSpeechVoiceID      = "xTB8eataxCKE46gkjKkH"
	defaultSpeechModelID      = "eleven_multilingual_v2"
	defaultSpeechOutputFormat = "mp3_44100_128"
	defaultSpeechTimeout      = 120
	defaultAlignmentProvider  = AlignerWhisper
	defaultAlignmentModel     = "whisper-1"
	defaultWhisperXModel      = "large-v3-turbo"
	defaultMaxSpanSeconds     = 1.0
	defaultCaptionFont        = "DejaVu Sans"
	defaultCaptionFontSize    = 45
	defaultCaptionPrimary     = "#FFFFFF"
	defaultCaptionOutline     = "#FF0096"
	defaultCaptionMarginV     = 200
	defaultRenderWidth        = 480
	defaultRenderHeight       = 854
	defaultRenderFPS          = 30
	defaultVideoCodec         = "libx264"
	defaultAudioCodec         = "aac"
	defaultVideoBitrate       = "4000k"
	defaultEncoderPreset      = "medium"
	defaultOutputName         = "asmr_reel_day{day}.mp4"
	defaultPublishBaseURL     = "https://api.upload-post.com/api"
	defaultPublishUser        = "japanwithlulu"
	defaultPublishSuffix      = " in Japanese 💖"
	defaultPublishFallback    = "Japanese ASMR Lesson"
	defaultPublishTimeout     = 300
	defaultNotifyTimeout      = 10
)

var (
	defaultBackgroundExtensions = []string{".mp4", ".mov", ".mkv"}
	defaultPublishPlatforms     = []string{"tiktok", "instagram"}
	defaultPublishHashtags      = []string{
		"japanese", "anime", "asmr", "kawaii", "love", "fyp", "learnjapanese",
		"otaku", "weeb", "cute", "asmrvideo", "animegirl", "bilingual",
		"languagelearning", "asmrcommunity", "trending", "viral", "fun",
		"foryoupage", "tiktokjapanese",
	}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:     defaultOutputDir,
			BackgroundDir: defaultBackgroundDir,
			StateDir:      defaultStateDir,
			LogDir:        defaultLogDir,
		},
		Script: Script{
			Provider:         defaultScriptProvider,
			Temperature:      defaultScriptTemperature,
			StartDate:        defaultScriptStartDate,
			MorningStartHour: defaultMorningStartHour,
			MorningEndHour:   defaultMorningEndHour,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultOpenAITimeout,
			MaxRetries:     defaultOpenAIMaxRetries,
		},
		LLM: LLM{
			BaseURL:        defaultOpenRouterBaseURL,
			Model:          defaultOpenRouterModel,
			Referer:        defaultOpenRouterReferer,
			Title:          defaultOpenRouterTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			VoiceID:        defaultSpeechVoiceID,
			ModelID:        defaultSpeechModelID,
			OutputFormat:   defaultSpeechOutputFormat,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Alignment: Alignment{
			Provider:      defaultAlignmentProvider,
			Model:         defaultAlignmentModel,
			CacheEnabled:  true,
			WhisperXModel: defaultWhisperXModel,
		},
		Captions: Captions{
			MaxSpanSeconds: defaultMaxSpanSeconds,
			FontName:       defaultCaptionFont,
			FontSize:       defaultCaptionFontSize,
			PrimaryColor:   defaultCaptionPrimary,
			OutlineColor:   defaultCaptionOutline,
			MarginVertical: defaultCaptionMarginV,
		},
		Render: Render{
			Width:        defaultRenderWidth,
			Height:       defaultRenderHeight,
			FPS:          defaultRenderFPS,
			VideoCodec:   defaultVideoCodec,
			AudioCodec:   defaultAudioCodec,
			VideoBitrate: defaultVideoBitrate,
			Preset:       defaultEncoderPreset,
			OutputName:   defaultOutputName,
			Extensions:   append([]string(nil), defaultBackgroundExtensions...),
		},
		Publish: Publish{
			Enabled:        true,
			BaseURL:        defaultPublishBaseURL,
			User:           defaultPublishUser,
			Platforms:      append([]string(nil), defaultPublishPlatforms...),
			TitleSuffix:    defaultPublishSuffix,
			FallbackTitle:  defaultPublishFallback,
			Hashtags:       append([]string(nil), defaultPublishHashtags...),
			TimeoutSeconds: defaultPublishTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
