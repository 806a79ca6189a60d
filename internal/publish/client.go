package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelgen/internal/services/httpretry"
)

const (
	defaultBaseURL = "https://api.upload-post.com/api"
	defaultTimeout = 300 * time.Second
	userAgent      = "reelgen-upload/0.1.0"
	serviceName    = "upload-post"
)

// TransportError reports a failed upload. The rendered file at Path is kept.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("publish %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Config captures Upload-Post connection settings.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Upload describes one video post.
type Upload struct {
	VideoPath   string
	Title       string
	User        string
	Platforms   []string
	Description string
	Tags        []string
}

// Response is the decoded Upload-Post reply.
type Response map[string]any

// Success reports the API's own success flag when present.
func (r Response) Success() bool {
	value, ok := r["success"].(bool)
	return !ok || value
}

// Client uploads rendered videos.
type Client struct {
	cfg        Config
	httpClient *http.Client
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

// NewClient constructs an Upload-Post client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Upload posts the video once. Uploads are not retried because a repeated
// request can publish the same reel twice.
func (c *Client) Upload(ctx context.Context, upload Upload) (Response, error) {
	fail := func(err error) (Response, error) {
		return nil, &TransportError{Path: upload.VideoPath, Err: err}
	}
	if c.cfg.APIKey == "" {
		return fail(errors.New("api key required"))
	}
	if strings.TrimSpace(upload.User) == "" || len(upload.Platforms) == 0 {
		return fail(errors.New("user and at least one platform required"))
	}

	body, contentType, err := buildForm(upload)
	if err != nil {
		return fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/upload", body)
	if err != nil {
		return fail(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Apikey "+c.cfg.APIKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(httpretry.NewStatusError(serviceName, resp))
	}

	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}
	if !decoded.Success() {
		return decoded, &TransportError{Path: upload.VideoPath, Err: fmt.Errorf("upload rejected: %v", decoded["message"])}
	}
	return decoded, nil
}

func buildForm(upload Upload) (io.Reader, string, error) {
	file, err := os.Open(upload.VideoPath)
	if err != nil {
		return nil, "", fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := [][2]string{{"title", upload.Title}, {"user", upload.User}}
	for _, platform := range upload.Platforms {
		fields = append(fields, [2]string{"platform[]", platform})
	}
	if desc := strings.TrimSpace(upload.Description); desc != "" {
		fields = append(fields, [2]string{"description", desc})
	}
	for _, tag := range upload.Tags {
		fields = append(fields, [2]string{"tags[]", tag})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", f[0], err)
		}
	}

	part, err := writer.CreateFormFile("video", filepath.Base(upload.VideoPath))
	if err != nil {
		return nil, "", fmt.Errorf("create video field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy video: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
