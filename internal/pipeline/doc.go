// Package pipeline runs one reel end to end: script, speech, alignment,
// caption segmentation, background loop, render and the optional upload.
//
// Every stage sits behind a small interface so tests can substitute fakes.
// A run holds an exclusive file lock under the state directory, records its
// progress in the history store, works inside a scratch directory that is
// removed on return, and reports outcomes through notifications.
package pipeline
