package whisperx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Word is one timed token, in seconds rounded to milliseconds.
type Word struct {
	Text  string
	Start float64
	End   float64
}

type rawWord struct {
	Word  string              `json:"word"`
	Start decimal.NullDecimal `json:"start"`
	End   decimal.NullDecimal `json:"end"`
}

func (w rawWord) timed() bool {
	return w.Start.Valid && w.End.Valid
}

// Segment is one WhisperX output segment.
type Segment struct {
	Text  string    `json:"text"`
	Words []rawWord `json:"words"`
}

type payload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments reads a WhisperX JSON output file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p.Segments, nil
}

// FlattenWords returns the timed words of all segments in order. Untimed
// words are appended to the preceding timed word; untimed words before the
// first timed word are prepended to it. Times are passed through as
// reported. If nothing is timed the result is empty.
func FlattenWords(segments []Segment) []Word {
	var words []Word
	var pending []string
	for _, seg := range segments {
		for _, raw := range seg.Words {
			text := strings.TrimSpace(raw.Word)
			if text == "" {
				continue
			}
			if !raw.timed() {
				if len(words) == 0 {
					pending = append(pending, text)
				} else {
					last := &words[len(words)-1]
					last.Text = last.Text + " " + text
				}
				continue
			}
			word := Word{Text: text, Start: seconds(raw.Start.Decimal), End: seconds(raw.End.Decimal)}
			if len(pending) > 0 {
				word.Text = strings.Join(append(pending, text), " ")
				pending = nil
			}
			words = append(words, word)
		}
	}
	return words
}

func seconds(d decimal.Decimal) float64 {
	f, _ := d.Round(3).Float64()
	return f
}
