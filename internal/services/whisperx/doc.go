// Package whisperx runs a local WhisperX install through uvx to produce word
// timestamps for synthesized narration.
//
// The audio is first normalized to a mono 16 kHz WAV with ffmpeg, then passed
// to WhisperX with JSON output. Word timestamps are read with decimal precision
// and rounded to milliseconds. WhisperX occasionally returns words without
// timing (digits and symbols it could not align); those are folded into a
// neighbouring timed word so no spoken token is dropped from the captions.
package whisperx
