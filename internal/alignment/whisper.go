package alignment

import (
	"context"
	"fmt"

	"reelgen/internal/captions"
	"reelgen/internal/services/openaiapi"
)

// Transcriber is the subset of the OpenAI client used for alignment.
type Transcriber interface {
	Transcribe(ctx context.Context, req openaiapi.TranscribeRequest) (openaiapi.Transcript, error)
}

// Whisper aligns through the hosted transcription endpoint.
type Whisper struct {
	Client   Transcriber
	Model    string
	Language string
}

// Name identifies the backend.
func (w *Whisper) Name() string {
	return "whisper:" + w.Model
}

// Align transcribes audioPath and returns its word timings.
func (w *Whisper) Align(ctx context.Context, audioPath string) ([]captions.WordInterval, error) {
	transcript, err := w.Client.Transcribe(ctx, openaiapi.TranscribeRequest{
		AudioPath: audioPath,
		Model:     w.Model,
		Language:  w.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("whisper align: %w", err)
	}
	words := make([]captions.WordInterval, 0, len(transcript.Words))
	for _, word := range transcript.Words {
		words = append(words, captions.WordInterval{Text: word.Word, Start: word.Start, End: word.End})
	}
	return nonEmpty(words)
}
