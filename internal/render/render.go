package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelgen/internal/captions"
	"reelgen/internal/fileutil"
	"reelgen/internal/logging"
	"reelgen/internal/media/ffmpeg"
)

const partialSuffix = ".partial.mp4"

// Settings are the fixed encode parameters.
type Settings struct {
	Width        int
	Height       int
	FPS          int
	VideoCodec   string
	AudioCodec   string
	VideoBitrate string
	Preset       string
	FontsDir     string
	WriteSRT     bool
}

// DefaultSettings matches the reel format: 480x854 at 30 fps, H.264/AAC.
func DefaultSettings() Settings {
	return Settings{
		Width:        480,
		Height:       854,
		FPS:          30,
		VideoCodec:   "libx264",
		AudioCodec:   "aac",
		VideoBitrate: "4000k",
		Preset:       "medium",
	}
}

// Request is one render job.
type Request struct {
	Background string
	Audio      string
	Cards      []captions.Card
	Output     string
	Duration   float64
	// WorkDir holds the caption track; defaults to the output directory.
	WorkDir string
}

// Result describes a finished render.
type Result struct {
	Output    string
	SRTPath   string
	Elapsed   time.Duration
	Captions  int
	SizeBytes int64
}

// Renderer runs the composite encode. When Inspect is set the encode is
// verified before it replaces the output file.
type Renderer struct {
	Runner   ffmpeg.Runner
	Settings Settings
	Style    captions.Style
	Inspect  InspectFunc
	Logger   *slog.Logger
}

// Render writes the captioned video to req.Output.
func (r *Renderer) Render(ctx context.Context, req Request) (Result, error) {
	if r.Runner == nil {
		return Result{}, errors.New("render: ffmpeg runner required")
	}
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	settings := r.settings()

	workDir := req.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(req.Output)
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return Result{}, fmt.Errorf("render: ensure output dir: %w", err)
	}

	assPath := filepath.Join(workDir, "captions.ass")
	if err := writeTrack(assPath, func(f *os.File) error {
		return captions.WriteASS(f, req.Cards, r.Style, captions.Canvas{Width: settings.Width, Height: settings.Height})
	}); err != nil {
		return Result{}, fmt.Errorf("render: write caption track: %w", err)
	}

	partial := partialPath(req.Output)
	_ = os.Remove(partial)
	started := time.Now()
	logger.Info("encoding reel",
		logging.String("output", req.Output),
		logging.Float64("duration_seconds", req.Duration),
		logging.Int("captions", len(req.Cards)),
		logging.String("background", filepath.Base(req.Background)),
	)
	if err := r.Runner.Run(ctx, buildArgs(settings, req, assPath, partial)...); err != nil {
		_ = os.Remove(partial)
		return Result{}, fmt.Errorf("render: %w", err)
	}
	var size int64
	if r.Inspect != nil {
		verified, err := verify(ctx, r.Inspect, partial, settings, req.Duration)
		if err != nil {
			_ = os.Remove(partial)
			return Result{}, fmt.Errorf("render: %w", err)
		}
		size = verified
	}
	if err := fileutil.MoveFile(partial, req.Output); err != nil {
		return Result{}, fmt.Errorf("render: finalize output: %w", err)
	}

	result := Result{Output: req.Output, Elapsed: time.Since(started), Captions: len(req.Cards), SizeBytes: size}
	if settings.WriteSRT {
		srtPath, err := writeSidecar(workDir, req)
		if err != nil {
			logging.WarnWithContext(logger, "caption sidecar not written", "render_sidecar",
				logging.Error(err),
				logging.String("output", req.Output),
			)
		} else {
			result.SRTPath = srtPath
		}
	}
	return result, nil
}

func (r *Renderer) settings() Settings {
	s := r.Settings
	d := DefaultSettings()
	if s.Width <= 0 || s.Height <= 0 {
		s.Width, s.Height = d.Width, d.Height
	}
	if s.FPS <= 0 {
		s.FPS = d.FPS
	}
	if s.VideoCodec == "" {
		s.VideoCodec = d.VideoCodec
	}
	if s.AudioCodec == "" {
		s.AudioCodec = d.AudioCodec
	}
	if s.VideoBitrate == "" {
		s.VideoBitrate = d.VideoBitrate
	}
	if s.Preset == "" {
		s.Preset = d.Preset
	}
	return s
}

func validateRequest(req Request) error {
	switch {
	case req.Background == "":
		return errors.New("render: background path required")
	case req.Audio == "":
		return errors.New("render: audio path required")
	case req.Output == "":
		return errors.New("render: output path required")
	case len(req.Cards) == 0:
		return fmt.Errorf("render: %w", captions.ErrEmptyInput)
	case !(req.Duration > 0):
		return fmt.Errorf("render: invalid duration %v", req.Duration)
	}
	return nil
}

func partialPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + partialSuffix
}

func buildArgs(s Settings, req Request, assPath, dest string) []string {
	filter := fmt.Sprintf("[0:v]scale=%d:%d,setsar=1,fps=%d,ass=%s", s.Width, s.Height, s.FPS, escapeFilterValue(assPath))
	if s.FontsDir != "" {
		filter += ":fontsdir=" + escapeFilterValue(s.FontsDir)
	}
	filter += "[v]"
	return []string{
		"-i", req.Background,
		"-i", req.Audio,
		"-filter_complex", filter,
		"-map", "[v]",
		"-map", "1:a:0",
		"-c:v", s.VideoCodec,
		"-preset", s.Preset,
		"-b:v", s.VideoBitrate,
		"-pix_fmt", "yuv420p",
		"-c:a", s.AudioCodec,
		"-t", ffmpeg.Seconds(req.Duration),
		"-movflags", "+faststart",
		dest,
	}
}

// escapeFilterValue escapes a path for use as a filtergraph option value.
func escapeFilterValue(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\\\`,
		`'`, `\\\'`,
		`:`, `\\:`,
		`,`, `\,`,
		`[`, `\[`,
		`]`, `\]`,
		`;`, `\;`,
	)
	return replacer.Replace(value)
}

func writeTrack(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeSidecar(workDir string, req Request) (string, error) {
	tmp := filepath.Join(workDir, "captions.srt")
	if err := writeTrack(tmp, func(f *os.File) error { return captions.WriteSRT(f, req.Cards) }); err != nil {
		return "", err
	}
	dest := strings.TrimSuffix(req.Output, filepath.Ext(req.Output)) + ".srt"
	if err := fileutil.MoveFile(tmp, dest); err != nil {
		return "", err
	}
	return dest, nil
}
