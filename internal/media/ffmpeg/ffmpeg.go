// Package ffmpeg runs ffmpeg subprocesses for the looping and render stages.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

const stderrTail = 2048

// Runner executes one ffmpeg invocation.
type Runner interface {
	Run(ctx context.Context, args ...string) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, args ...string) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, args ...string) error {
	return f(ctx, args...)
}

// Seconds formats a -t duration, rounded up to the millisecond so the output
// is never shorter than requested.
func Seconds(v float64) string {
	ms := math.Ceil(v*1000 - 1e-6)
	return strconv.FormatFloat(ms/1000, 'f', 3, 64)
}

// Exec runs the ffmpeg binary found at Binary (or on PATH).
type Exec struct {
	Binary string
}

// Run executes ffmpeg and folds the tail of stderr into the error.
func (e Exec) Run(ctx context.Context, args ...string) error {
	binary := strings.TrimSpace(e.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	full := append([]string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}, args...)
	cmd := exec.CommandContext(ctx, binary, full...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg: %w", errors.Join(ctxErr, err))
		}
		return &Error{Args: args, Err: err, Stderr: tail(stderr.String())}
	}
	return nil
}

// Error is a failed ffmpeg run.
type Error struct {
	Args   []string
	Err    error
	Stderr string
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg: %v: %s", e.Err, e.Stderr)
}

func (e *Error) Unwrap() error { return e.Err }

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTail {
		return s
	}
	return "…" + s[len(s)-stderrTail:]
}
