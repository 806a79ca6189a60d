// Package captions turns word-level timestamps into on-screen caption cards.
//
// Segment packs an ordered list of WordIntervals into Cards greedily from
// left to right: a card keeps absorbing the next word while the span from its
// first word's start to the candidate's end stays within the configured
// maximum. A word that is longer than the maximum on its own is emitted as a
// singleton card. The packing never backtracks, so identical input always
// yields identical cards.
//
// The package also writes the resulting cards as ASS (burned into the video by
// the renderer) or SRT (sidecar) tracks.
package captions
