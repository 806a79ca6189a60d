package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"reelgen/internal/background"
	"reelgen/internal/config"
	"reelgen/internal/deps"
	"reelgen/internal/services/elevenlabs"
	"reelgen/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckElevenLabs verifies the speech key and reports remaining characters.
func CheckElevenLabs(ctx context.Context, speech config.Speech) Result {
	const name = "ElevenLabs"
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client := elevenlabs.NewClient(elevenlabs.Config{APIKey: speech.APIKey, BaseURL: speech.BaseURL})
	quota, err := client.CheckQuota(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if quota.Limit > 0 && quota.Remaining == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("character quota exhausted (%d/%d)", quota.Used, quota.Limit)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s tier, %d characters left", quota.Tier, quota.Remaining)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBackgrounds verifies at least one background clip is available.
func CheckBackgrounds(dir string, extensions []string) Result {
	const name = "Background clips"
	files, err := background.Candidates(dir, extensions)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(files) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (no eligible video files)", dir)}
	}
	if err := unix.Access(dir, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d clips)", dir, len(files))}
}

// CheckCredentials reports whether every API key the configured providers
// need is present.
func CheckCredentials(cfg *config.Config, publish bool) Result {
	const name = "API keys"
	if err := cfg.ValidateCredentials(publish); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "all required keys present"}
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for background looping and rendering",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for measuring narration length",
			VersionArgs: []string{"-version"},
		},
	}
	if cfg.Alignment.Provider == config.AlignerWhisperX {
		requirements = append(requirements, deps.Requirement{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Required for WhisperX word alignment",
			VersionArgs: []string{"--version"},
		})
	}
	return deps.CheckBinaries(ctx, requirements)
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
