// Package script produces the narration text for a day's reel.
//
// A prompt template is chosen by time of day (or forced by configuration),
// the day counter is substituted into it, and the rendered prompt is sent to
// a text Generator. The generated script is trimmed and must not be empty.
package script
