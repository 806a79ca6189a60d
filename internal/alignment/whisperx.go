package alignment

import (
	"context"
	"fmt"

	"reelgen/internal/captions"
	"reelgen/internal/services/whisperx"
)

// WhisperX aligns with a local WhisperX install.
type WhisperX struct {
	Service *whisperx.Service
	// WorkDir receives intermediate files; defaults to the audio's directory.
	WorkDir string
}

// Name identifies the backend.
func (w *WhisperX) Name() string {
	return "whisperx:" + w.Service.Model()
}

// Align runs WhisperX on audioPath.
func (w *WhisperX) Align(ctx context.Context, audioPath string) ([]captions.WordInterval, error) {
	timed, err := w.Service.AlignFile(ctx, audioPath, w.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("whisperx align: %w", err)
	}
	words := make([]captions.WordInterval, 0, len(timed))
	for _, word := range timed {
		words = append(words, captions.WordInterval{Text: word.Text, Start: word.Start, End: word.End})
	}
	return nonEmpty(words)
}
