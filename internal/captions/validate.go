package captions

import (
	"fmt"
	"math"
)

// Validate checks that words are usable for segmentation. Times must be
// finite, starts must not be negative, every word must have a positive
// duration, starts must not decrease and a word may not begin more than
// OverlapTolerance before the previous word ends. Gaps between words of any
// size are accepted.
func Validate(words []WordInterval) error {
	for i, w := range words {
		if !finite(w.Start) || !finite(w.End) {
			return fmt.Errorf("%w: word %d (%q) has non-finite time", ErrInvalidInterval, i, w.Text)
		}
		if w.Start < 0 {
			return fmt.Errorf("%w: word %d (%q) starts at %.3fs", ErrInvalidInterval, i, w.Text, w.Start)
		}
		if w.End < w.Start {
			return fmt.Errorf("%w: word %d (%q) ends at %.3fs before it starts at %.3fs", ErrInvalidInterval, i, w.Text, w.End, w.Start)
		}
		if w.End == w.Start {
			return fmt.Errorf("%w: word %d (%q) has no duration at %.3fs", ErrInvalidInterval, i, w.Text, w.Start)
		}
		if i == 0 {
			continue
		}
		prev := words[i-1]
		if w.Start < prev.Start {
			return fmt.Errorf("%w: word %d (%q) starts at %.3fs before word %d at %.3fs", ErrInvalidInterval, i, w.Text, w.Start, i-1, prev.Start)
		}
		if w.Start < prev.End-OverlapTolerance {
			return fmt.Errorf("%w: word %d (%q) overlaps word %d by %.3fs", ErrInvalidInterval, i, w.Text, i-1, prev.End-w.Start)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
