// Package ffprobe decodes ffprobe JSON for the audio and video files the
// pipeline handles.
//
// The narration duration drives both the background loop plan and the render
// length, so Duration reports an error instead of a zero value when ffprobe
// cannot establish one.
package ffprobe
