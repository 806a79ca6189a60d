package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Script generation providers.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// Alignment backends.
const (
	AlignerWhisper  = "whisper"
	AlignerWhisperX = "whisperx"
)

// Paths contains directory configuration.
type Paths struct {
	OutputDir     string `toml:"output_dir"`
	BackgroundDir string `toml:"background_dir"`
	WorkDir       string `toml:"work_dir"`
	StateDir      string `toml:"state_dir"`
	LogDir        string `toml:"log_dir"`
}

// Script controls how the daily monologue is produced.
type Script struct {
	Provider         string  `toml:"provider"`
	Temperature      float64 `toml:"temperature"`
	StartDate        string  `toml:"start_date"`
	Template         string  `toml:"template"`
	TemplateFile     string  `toml:"template_file"`
	MorningStartHour int     `toml:"morning_start_hour"`
	MorningEndHour   int     `toml:"morning_end_hour"`
}

// OpenAI contains connection settings for chat completion and Whisper transcription.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

// LLM contains settings for the OpenRouter-compatible chat endpoint.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Speech contains ElevenLabs text-to-speech settings.
type Speech struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	VoiceID        string `toml:"voice_id"`
	ModelID        string `toml:"model_id"`
	OutputFormat   string `toml:"output_format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Alignment selects and tunes the word timestamp backend.
type Alignment struct {
	Provider            string `toml:"provider"`
	Model               string `toml:"model"`
	Language            string `toml:"language"`
	CacheEnabled        bool   `toml:"cache"`
	WhisperXModel       string `toml:"whisperx_model"`
	WhisperXCUDAEnabled bool   `toml:"whisperx_cuda_enabled"`
}

// Captions controls segmentation and the burned-in caption style.
type Captions struct {
	MaxSpanSeconds float64 `toml:"max_span_seconds"`
	FontName       string  `toml:"font_name"`
	FontSize       float64 `toml:"font_size"`
	PrimaryColor   string  `toml:"primary_color"`
	OutlineColor   string  `toml:"outline_color"`
	Bold           bool    `toml:"bold"`
	MarginVertical int     `toml:"margin_vertical"`
	FontsDir       string  `toml:"fonts_dir"`
}

// Render contains the fixed encode settings for the output video.
type Render struct {
	Width           int      `toml:"width"`
	Height          int      `toml:"height"`
	FPS             int      `toml:"fps"`
	VideoCodec      string   `toml:"video_codec"`
	AudioCodec      string   `toml:"audio_codec"`
	VideoBitrate    string   `toml:"video_bitrate"`
	Preset          string   `toml:"preset"`
	OutputName      string   `toml:"output_name"`
	Extensions      []string `toml:"background_extensions"`
	WriteSRTSidecar bool     `toml:"write_srt_sidecar"`
}

// Publish contains Upload-Post distribution settings.
type Publish struct {
	Enabled        bool     `toml:"enabled"`
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	User           string   `toml:"user"`
	Platforms      []string `toml:"platforms"`
	TitleSuffix    string   `toml:"title_suffix"`
	FallbackTitle  string   `toml:"fallback_title"`
	Hashtags       []string `toml:"hashtags"`
	Tags           []string `toml:"tags"`
	Description    string   `toml:"description"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completion     bool   `toml:"completion"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reelgen.
//
// Configuration sections by stage:
//   - Paths: output, background, state and log directories
//   - Script: prompt template choice and text provider
//   - OpenAI / LLM: credentials for the two text providers
//   - Speech: ElevenLabs voice synthesis
//   - Alignment: Whisper or WhisperX word timestamps
//   - Captions: segmentation span and caption style
//   - Render: ffmpeg encode settings
//   - Publish: Upload-Post distribution
//   - Notifications / Logging: operator feedback
type Config struct {
	Paths         Paths         `toml:"paths"`
	Script        Script        `toml:"script"`
	OpenAI        OpenAI        `toml:"openai"`
	LLM           LLM           `toml:"llm"`
	Speech        Speech        `toml:"speech"`
	Alignment     Alignment     `toml:"alignment"`
	Captions      Captions      `toml:"captions"`
	Render        Render        `toml:"render"`
	Publish       Publish       `toml:"publish"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelgen/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelgen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into. The background
// directory is only read, so it is left alone.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Paths.WorkDir != "" {
		if err := os.MkdirAll(c.Paths.WorkDir, 0o755); err != nil {
			return fmt.Errorf("create work directory %q: %w", c.Paths.WorkDir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for looping and rendering.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// HistoryPath is the SQLite database holding run history and cached transcripts.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath is the file used to serialize concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "reelgen.lock")
}

// LogPath is the daily log file written alongside console output.
func (c *Config) LogPath(now time.Time) string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "reelgen-"+now.Format(time.DateOnly)+".log")
}

// ScriptStartDate parses script.start_date in the local time zone.
func (c *Config) ScriptStartDate() (time.Time, error) {
	start, err := time.ParseInLocation(time.DateOnly, c.Script.StartDate, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("script.start_date: %w", err)
	}
	return start, nil
}

// OutputPath expands render.output_name for the given day inside paths.output_dir.
func (c *Config) OutputPath(day int) string {
	name := strings.ReplaceAll(c.Render.OutputName, "{day}", strconv.Itoa(day))
	return filepath.Join(c.Paths.OutputDir, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the OpenRouter connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	Temperature    float64
	TimeoutSeconds int
}

// GetLLM returns the OpenRouter connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		Temperature:    c.Script.Temperature,
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
