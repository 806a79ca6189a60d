package alignment

import (
	"context"
	"errors"
	"math"
	"strings"

	"reelgen/internal/captions"
)

// ErrEmptyTranscript means alignment produced no timed words.
var ErrEmptyTranscript = errors.New("alignment: transcript has no timed words")

// Aligner produces word intervals for an audio file.
type Aligner interface {
	Align(ctx context.Context, audioPath string) ([]captions.WordInterval, error)
	// Name identifies the backend and model, e.g. "whisper:whisper-1".
	Name() string
}

// Repairs counts what Tidy changed.
type Repairs struct {
	Blank   int // whitespace-only tokens dropped
	Clamped int // starts moved forward by at most captions.OverlapTolerance
	Merged  int // words without duration joined to a neighbour
}

// Total is the number of individual repairs.
func (r Repairs) Total() int {
	return r.Blank + r.Clamped + r.Merged
}

// Tidy repairs recognizer jitter no larger than captions.OverlapTolerance.
// Blank tokens are dropped, a start slightly before zero or before the
// previous word's end is clamped, and a word with no duration is joined to
// the previous word (or the next one when it leads the transcript).
// Non-finite times, reversed words and larger overlaps are left in place
// for captions.Validate to reject.
func Tidy(words []captions.WordInterval) ([]captions.WordInterval, Repairs) {
	var r Repairs
	out := make([]captions.WordInterval, 0, len(words))
	var held []captions.WordInterval
	for _, w := range words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text == "" {
			r.Blank++
			continue
		}
		if !finite(w.Start) || !finite(w.End) {
			out = append(out, w)
			continue
		}
		if w.Start < 0 && w.Start >= -captions.OverlapTolerance {
			w.Start = 0
			r.Clamped++
		}
		n := len(out)
		if n > 0 {
			prevEnd := out[n-1].End
			if w.Start < prevEnd && w.Start >= prevEnd-captions.OverlapTolerance {
				w.Start = prevEnd
				r.Clamped++
			}
		}
		if w.End <= w.Start && w.End >= w.Start-captions.OverlapTolerance {
			switch {
			case n == 0:
				held = append(held, w)
				continue
			case w.Start >= out[n-1].End:
				out[n-1].Text += " " + w.Text
				r.Merged++
				continue
			}
		}
		if len(held) > 0 {
			texts := make([]string, 0, len(held)+1)
			for _, h := range held {
				texts = append(texts, h.Text)
			}
			w.Text = strings.Join(append(texts, w.Text), " ")
			r.Merged += len(held)
			held = nil
		}
		out = append(out, w)
	}
	// Nothing with a duration followed: keep the words so Validate reports them.
	return append(out, held...), r
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nonEmpty(words []captions.WordInterval) ([]captions.WordInterval, error) {
	for _, w := range words {
		if strings.TrimSpace(w.Text) != "" {
			return words, nil
		}
	}
	return nil, ErrEmptyTranscript
}
