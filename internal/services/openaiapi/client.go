// Package openaiapi wraps the official OpenAI SDK for the two calls reelgen
// makes: a chat completion that writes the script and a Whisper transcription
// with word-level timestamps.
package openaiapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultModel        = "gpt-4"
	defaultTranscriber  = "whisper-1"
	defaultRequestLimit = 120 * time.Second
)

// Config carries connection and sampling settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	TimeoutSeconds int
	MaxRetries     int
}

// Client issues chat and transcription requests.
type Client struct {
	sdk openai.Client
	cfg Config
}

// NewClient builds a client. Extra request options are appended after the
// ones derived from cfg, so tests can override them.
func NewClient(cfg Config, opts ...option.RequestOption) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := defaultRequestLimit
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		requestOpts = append(requestOpts, option.WithBaseURL(base))
	}
	requestOpts = append(requestOpts, opts...)
	return &Client{sdk: openai.NewClient(requestOpts...), cfg: cfg}
}

// Model returns the chat model used by Complete.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends prompt as a single user message and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("openai complete: prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("openai complete: api key required")
	}
	resp, err := c.sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.cfg.Model),
		Temperature: openai.Float(c.cfg.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai complete: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// TranscribeRequest selects the audio file and model for transcription.
type TranscribeRequest struct {
	AudioPath string
	Model     string
	// Language is an ISO-639-1 code; empty lets the model detect it.
	Language string
}

// Word is one transcribed word with its timing in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the verbose_json payload reduced to what alignment needs.
type Transcript struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Words    []Word  `json:"words"`
}

// Transcribe uploads the audio file and requests word timestamp granularity.
func (c *Client) Transcribe(ctx context.Context, req TranscribeRequest) (Transcript, error) {
	var out Transcript
	if c.cfg.APIKey == "" {
		return out, errors.New("openai transcribe: api key required")
	}
	file, err := os.Open(req.AudioPath)
	if err != nil {
		return out, fmt.Errorf("openai transcribe: open audio: %w", err)
	}
	defer file.Close()

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = defaultTranscriber
	}
	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word"},
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		params.Language = openai.String(lang)
	}

	resp, err := c.sdk.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return out, fmt.Errorf("openai transcribe: %w", err)
	}
	raw := resp.RawJSON()
	if raw == "" {
		return out, errors.New("openai transcribe: empty response")
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("openai transcribe: decode verbose_json: %w", err)
	}
	return out, nil
}
