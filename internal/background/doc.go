// Package background picks a background clip and stretches it to the
// narration length.
//
// Select chooses a clip uniformly at random from the background directory.
// PlanLoop decides how many whole copies of the clip are needed, and Looper
// runs ffmpeg's concat demuxer over those copies, scales to the output frame,
// strips audio and trims to the exact target duration.
package background
