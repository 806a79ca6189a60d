package captions

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxSpan is the longest time, in seconds, a multi-word card may stay on screen.
const DefaultMaxSpan = 1.0

// OverlapTolerance is how far, in seconds, a word may start before the previous
// word ends before the sequence is rejected as overlapping.
const OverlapTolerance = 0.010

var (
	// ErrEmptyInput is returned when segmentation is asked to work on zero words.
	ErrEmptyInput = errors.New("captions: no word intervals to segment")
	// ErrInvalidMaxSpan is returned for a non-positive or non-finite span limit.
	ErrInvalidMaxSpan = errors.New("captions: max span must be a positive number of seconds")
	// ErrInvalidInterval is returned when a word interval breaks ordering or timing rules.
	ErrInvalidInterval = errors.New("captions: invalid word interval")
)

// WordInterval is a single transcribed word with its position in the audio timeline.
type WordInterval struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the word's own length in seconds.
func (w WordInterval) Duration() float64 {
	return w.End - w.Start
}

// Card is a group of consecutive words shown as one subtitle.
type Card struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Span returns how long the card stays on screen.
func (c Card) Span() float64 {
	return c.End - c.Start
}

// Words splits the card text back into its tokens.
func (c Card) Words() []string {
	return strings.Split(c.Text, " ")
}

func (c Card) String() string {
	return fmt.Sprintf("[%.3f-%.3f] %s", c.Start, c.End, c.Text)
}

// Summary describes a card sequence for logs and CLI output.
type Summary struct {
	Cards       int
	Words       int
	LongestSpan float64
	Oversized   int
	Duration    float64
}

// Stats summarizes cards against the span limit they were built with.
// Oversized counts singleton cards admitted by the long-word escape.
func Stats(cards []Card, maxSpan float64) Summary {
	var s Summary
	s.Cards = len(cards)
	for _, card := range cards {
		s.Words += len(strings.Fields(card.Text))
		span := card.Span()
		if span > s.LongestSpan {
			s.LongestSpan = span
		}
		if span > maxSpan {
			s.Oversized++
		}
	}
	if len(cards) > 0 {
		s.Duration = cards[len(cards)-1].End - cards[0].Start
	}
	return s
}
