package background

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"reelgen/internal/logging"
	"reelgen/internal/media/ffmpeg"
)

// ProbeFunc reports a media file's duration in seconds.
type ProbeFunc func(ctx context.Context, path string) (float64, error)

// Looper stretches a background clip to a target duration.
type Looper struct {
	Runner ffmpeg.Runner
	Probe  ProbeFunc
	Width  int
	Height int
	FPS    int
	Logger *slog.Logger
}

// Result describes a looped background.
type Result struct {
	Path           string
	Copies         int
	SourceDuration float64
}

// Loop writes a silent clip of exactly target seconds to dest, built from
// whole copies of source.
func (l *Looper) Loop(ctx context.Context, source string, target float64, dest string) (Result, error) {
	if l.Runner == nil || l.Probe == nil {
		return Result{}, fmt.Errorf("background loop: runner and probe required")
	}
	sourceDuration, err := l.Probe(ctx, source)
	if err != nil {
		return Result{}, fmt.Errorf("background loop: probe %s: %w", source, err)
	}
	copies, err := PlanLoop(sourceDuration, target)
	if err != nil {
		return Result{}, err
	}

	listPath := strings.TrimSuffix(dest, filepath.Ext(dest)) + ".concat.txt"
	if err := writeConcatList(listPath, source, copies); err != nil {
		return Result{}, err
	}

	logger := l.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Debug("looping background",
		logging.String("source", filepath.Base(source)),
		logging.Float64("source_duration", sourceDuration),
		logging.Float64("target_duration", target),
		logging.Int("copies", copies),
	)

	if err := l.Runner.Run(ctx, l.args(listPath, target, dest)...); err != nil {
		return Result{}, fmt.Errorf("background loop: %w", err)
	}
	return Result{Path: dest, Copies: copies, SourceDuration: sourceDuration}, nil
}

func (l *Looper) args(listPath string, target float64, dest string) []string {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-t", ffmpeg.Seconds(target),
		"-an",
	}
	if l.Width > 0 && l.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d,setsar=1", l.Width, l.Height))
	}
	if l.FPS > 0 {
		args = append(args, "-r", strconv.Itoa(l.FPS))
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		dest,
	)
	return args
}

func writeConcatList(path, source string, copies int) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("background loop: resolve %s: %w", source, err)
	}
	line := "file '" + strings.ReplaceAll(abs, "'", `'\''`) + "'\n"
	if err := os.WriteFile(path, []byte(strings.Repeat(line, copies)), 0o644); err != nil {
		return fmt.Errorf("background loop: write concat list: %w", err)
	}
	return nil
}
