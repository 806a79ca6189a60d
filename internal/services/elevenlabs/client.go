// Package elevenlabs synthesizes speech through the ElevenLabs text-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelgen/internal/services/httpretry"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io"
	defaultVoiceID      = "xTB8eataxCKE46gkjKkH"
	defaultModelID      = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_128"
	defaultHTTPTimeout  = 120 * time.Second
	serviceName         = "elevenlabs"
)

// Config captures connection settings.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Request describes one synthesis call. Empty fields fall back to the
// multilingual voice defaults.
type Request struct {
	Text         string
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// Result reports what was written.
type Result struct {
	Bytes       int64
	ContentType string
	RequestID   string
}

// Client talks to the ElevenLabs REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      httpretry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy httpretry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// NewClient constructs a client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      httpretry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type synthesisBody struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize writes the synthesized audio for req.Text into w. The body is
// buffered per attempt so a retried request never leaves partial audio in w.
func (c *Client) Synthesize(ctx context.Context, req Request, w io.Writer) (Result, error) {
	var result Result
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return result, errors.New("elevenlabs synthesize: text required")
	}
	if c.cfg.APIKey == "" {
		return result, errors.New("elevenlabs synthesize: api key required")
	}
	voice := firstNonEmpty(req.VoiceID, defaultVoiceID)
	format := firstNonEmpty(req.OutputFormat, defaultOutputFormat)
	payload, err := json.Marshal(synthesisBody{Text: text, ModelID: firstNonEmpty(req.ModelID, defaultModelID)})
	if err != nil {
		return result, fmt.Errorf("elevenlabs synthesize: encode body: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		c.cfg.BaseURL, url.PathEscape(voice), url.QueryEscape(format))

	err = c.retry.Do(ctx, "elevenlabs synthesize", func(ctx context.Context, _ int) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("elevenlabs request: new request: %w", err)
		}
		httpReq.Header.Set("xi-api-key", c.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "audio/mpeg")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("elevenlabs request: http error: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusMultipleChoices {
			return httpretry.NewStatusError(serviceName, resp)
		}
		var audio bytes.Buffer
		if _, err := audio.ReadFrom(resp.Body); err != nil {
			return fmt.Errorf("elevenlabs request: read audio after %d bytes: %w", audio.Len(), err)
		}
		if audio.Len() == 0 {
			return errors.New("elevenlabs request: empty audio body")
		}
		n, err := audio.WriteTo(w)
		if err != nil {
			return fmt.Errorf("elevenlabs synthesize: write audio: %w", err)
		}
		result = Result{
			Bytes:       n,
			ContentType: resp.Header.Get("Content-Type"),
			RequestID:   resp.Header.Get("request-id"),
		}
		return nil
	})
	return result, err
}

type userResponse struct {
	Subscription struct {
		Tier           string `json:"tier"`
		CharacterCount int    `json:"character_count"`
		CharacterLimit int    `json:"character_limit"`
	} `json:"subscription"`
}

// Quota is the character allowance reported by the account endpoint.
type Quota struct {
	Tier      string
	Used      int
	Limit     int
	Remaining int
}

// CheckQuota verifies the API key and reports remaining characters.
func (c *Client) CheckQuota(ctx context.Context) (Quota, error) {
	var quota Quota
	if c.cfg.APIKey == "" {
		return quota, errors.New("elevenlabs quota: api key required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/user", nil)
	if err != nil {
		return quota, fmt.Errorf("elevenlabs quota: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return quota, fmt.Errorf("elevenlabs quota: http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return quota, httpretry.NewStatusError(serviceName, resp)
	}
	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return quota, fmt.Errorf("elevenlabs quota: decode: %w", err)
	}
	quota = Quota{
		Tier:      user.Subscription.Tier,
		Used:      user.Subscription.CharacterCount,
		Limit:     user.Subscription.CharacterLimit,
		Remaining: max(user.Subscription.CharacterLimit-user.Subscription.CharacterCount, 0),
	}
	return quota, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
