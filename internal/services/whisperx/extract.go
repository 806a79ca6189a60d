package whisperx

import (
	"context"
	"fmt"
)

// buildExtractArgs converts any audio source into the mono 16 kHz PCM WAV
// WhisperX expects.
func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// ExtractAudio writes the WhisperX input WAV for source to dest.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	if source == "" || dest == "" {
		return fmt.Errorf("extract audio: source and destination required")
	}
	if err := s.run(ctx, s.ffmpegBinary, buildExtractArgs(source, dest)...); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	return nil
}
