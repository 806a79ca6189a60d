// Package render composites the looped background, the narration and the
// caption cards into the final vertical video.
//
// Cards are written as an ASS track and burned in with ffmpeg's ass filter.
// The encode goes to "<output>.partial.mp4" and is renamed into place only
// after ffmpeg succeeds, so a crashed or cancelled run never leaves a
// truncated file under the final name.
package render
