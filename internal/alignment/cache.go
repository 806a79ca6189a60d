package alignment

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"lukechampine.com/blake3"

	"reelgen/internal/captions"
	"reelgen/internal/logging"
)

// TranscriptStore persists aligner output keyed by audio hash.
type TranscriptStore interface {
	Transcript(ctx context.Context, audioHash, aligner string) (string, bool, error)
	PutTranscript(ctx context.Context, audioHash, aligner, wordsJSON string) error
}

// Cached reuses stored transcripts for identical audio. Store failures are
// logged and fall through to the wrapped aligner.
type Cached struct {
	Inner  Aligner
	Store  TranscriptStore
	Logger *slog.Logger
}

// Name reports the wrapped aligner's name.
func (c *Cached) Name() string { return c.Inner.Name() }

// Align returns the cached transcript for audioPath or computes and stores it.
func (c *Cached) Align(ctx context.Context, audioPath string) ([]captions.WordInterval, error) {
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	hash, err := HashFile(audioPath)
	if err != nil {
		return nil, err
	}
	name := c.Inner.Name()

	if cached, ok, err := c.Store.Transcript(ctx, hash, name); err != nil {
		logging.WarnWithContext(logger, "transcript cache lookup failed", "transcript_cache",
			logging.Error(err),
			logging.String("audio_hash", hash),
		)
	} else if ok {
		var words []captions.WordInterval
		if err := json.Unmarshal([]byte(cached), &words); err == nil && len(words) > 0 {
			logger.Info("transcript cache hit",
				logging.String("audio_hash", hash[:12]),
				logging.String("aligner", name),
				logging.Int("words", len(words)),
			)
			return words, nil
		}
	}

	words, err := c.Inner.Align(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(words); err == nil {
		if err := c.Store.PutTranscript(ctx, hash, name, string(data)); err != nil {
			logging.WarnWithContext(logger, "transcript cache store failed", "transcript_cache",
				logging.Error(err),
				logging.String("audio_hash", hash),
			)
		}
	}
	return words, nil
}

// HashFile returns the hex BLAKE3-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash audio: %w", err)
	}
	defer f.Close()
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash audio: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
