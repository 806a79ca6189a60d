package captions

import (
	"strings"
)

// Segment groups words into caption cards whose span never exceeds maxSpan,
// except for a single word that is already longer than maxSpan by itself.
//
// Cards are built in one pass: a card starts at the next unconsumed word and
// absorbs following words while candidate.End-first.Start <= maxSpan. The
// first word that would overflow closes the card and starts the next one.
func Segment(words []WordInterval, maxSpan float64) ([]Card, error) {
	if len(words) == 0 {
		return nil, ErrEmptyInput
	}
	if !finite(maxSpan) || maxSpan <= 0 {
		return nil, ErrInvalidMaxSpan
	}
	if err := Validate(words); err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(words))
	for i := 0; i < len(words); {
		first := words[i]
		if first.Duration() > maxSpan {
			cards = append(cards, Card{Text: strings.TrimSpace(first.Text), Start: first.Start, End: first.End})
			i++
			continue
		}

		j := i + 1
		for j < len(words) && words[j].End-first.Start <= maxSpan {
			j++
		}
		cards = append(cards, newCard(words[i:j]))
		i = j
	}
	return cards, nil
}

func newCard(group []WordInterval) Card {
	tokens := make([]string, len(group))
	for i, w := range group {
		tokens[i] = w.Text
	}
	return Card{
		Text:  strings.TrimSpace(strings.Join(tokens, " ")),
		Start: group[0].Start,
		End:   group[len(group)-1].End,
	}
}
