package render

import (
	"context"
	"errors"
	"fmt"

	"reelgen/internal/media/ffprobe"
)

// durationSlack absorbs container rounding between the -t trim and the muxed
// audio frame boundary.
const durationSlack = 0.1

// ErrInvalidOutput marks an encode that finished but does not look like a reel.
var ErrInvalidOutput = errors.New("rendered file failed verification")

// InspectFunc probes an encoded file.
type InspectFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// verify checks the encoded file has both streams, the configured frame size
// and at least the narration's duration. It returns the probed size in bytes.
func verify(ctx context.Context, inspect InspectFunc, path string, s Settings, duration float64) (int64, error) {
	probe, err := inspect(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("probe output: %w", err)
	}
	if !probe.HasVideo() {
		return 0, fmt.Errorf("%w: no video stream", ErrInvalidOutput)
	}
	if !probe.HasAudio() {
		return 0, fmt.Errorf("%w: no audio stream", ErrInvalidOutput)
	}
	if w, h := probe.VideoSize(); w != s.Width || h != s.Height {
		return 0, fmt.Errorf("%w: frame %dx%d, want %dx%d", ErrInvalidOutput, w, h, s.Width, s.Height)
	}
	if got := probe.DurationSeconds(); got+durationSlack < duration {
		return 0, fmt.Errorf("%w: duration %.3fs shorter than narration %.3fs", ErrInvalidOutput, got, duration)
	}
	return probe.SizeBytes(), nil
}
