// Package alignment turns synthesized narration into ordered word intervals.
//
// Two aligners are available: the OpenAI Whisper transcription endpoint with
// word granularity, and a local WhisperX run. Both return intervals tidied
// for the caption segmenter. CachedAligner wraps either one and reuses a
// stored transcript when the audio bytes hash to a known BLAKE3 digest.
package alignment
