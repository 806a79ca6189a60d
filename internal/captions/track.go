package captions

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
)

const styleName = "Caption"

// ASS alignment code for top-centre placement (numpad layout).
const alignTopCenter = 8

// Style describes how caption cards look when burned into the video.
type Style struct {
	FontName       string
	FontSize       float64
	PrimaryColor   string
	OutlineColor   string
	Bold           bool
	MarginVertical int
}

// Canvas is the frame size the ASS coordinates are expressed in.
type Canvas struct {
	Width  int
	Height int
}

// Backslashes get a trailing word joiner so "\N" or "\h" in spoken text is
// not read as an ASS escape; braces would otherwise open an override block.
var assText = strings.NewReplacer(
	`\`, "\\\u2060",
	"{", `\{`,
	"}", `\}`,
	"\n", " ",
	"\r", " ",
)

// WriteASS writes cards as an Advanced SubStation Alpha track. Each card is
// one event visible from its start to its end. Card text is escaped so it
// renders literally.
func WriteASS(w io.Writer, cards []Card, style Style, canvas Canvas) error {
	subs, err := buildSubtitles(cards, assText.Replace)
	if err != nil {
		return err
	}
	primary, err := parseColor(style.PrimaryColor)
	if err != nil {
		return fmt.Errorf("caption primary color: %w", err)
	}
	outline, err := parseColor(style.OutlineColor)
	if err != nil {
		return fmt.Errorf("caption outline color: %w", err)
	}

	attrs := &astisub.StyleAttributes{
		SSAFontName:       style.FontName,
		SSAFontSize:       floatPtr(style.FontSize),
		SSAPrimaryColour:  primary,
		SSAOutlineColour:  outline,
		SSABold:           boolPtr(style.Bold),
		SSAAlignment:      intPtr(alignTopCenter),
		SSAMarginVertical: intPtr(style.MarginVertical),
	}
	st := &astisub.Style{ID: styleName, InlineStyle: attrs}
	subs.Styles[styleName] = st
	for _, item := range subs.Items {
		item.Style = st
	}
	subs.Metadata = &astisub.Metadata{
		Title:       "reelgen captions",
		SSAPlayResX: intPtr(canvas.Width),
		SSAPlayResY: intPtr(canvas.Height),
	}
	if err := subs.WriteToSSA(w); err != nil {
		return fmt.Errorf("write ass track: %w", err)
	}
	return nil
}

// WriteSRT writes cards as a SubRip track.
func WriteSRT(w io.Writer, cards []Card) error {
	subs, err := buildSubtitles(cards, nil)
	if err != nil {
		return err
	}
	if err := subs.WriteToSRT(w); err != nil {
		return fmt.Errorf("write srt track: %w", err)
	}
	return nil
}

func buildSubtitles(cards []Card, escape func(string) string) (*astisub.Subtitles, error) {
	if len(cards) == 0 {
		return nil, ErrEmptyInput
	}
	subs := astisub.NewSubtitles()
	for _, card := range cards {
		text := card.Text
		if escape != nil {
			text = escape(text)
		}
		subs.Items = append(subs.Items, &astisub.Item{
			StartAt: seconds(card.Start),
			EndAt:   seconds(card.End),
			Lines: []astisub.Line{
				{Items: []astisub.LineItem{{Text: text}}},
			},
		})
	}
	return subs, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}

// parseColor accepts #RRGGBB or #AARRGGBB (alpha 00 is opaque, as in ASS).
func parseColor(value string) (*astisub.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if hex == "" {
		return nil, nil
	}
	var alpha uint64
	switch len(hex) {
	case 6:
	case 8:
		a, err := strconv.ParseUint(hex[:2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", value, err)
		}
		alpha = a
		hex = hex[2:]
	default:
		return nil, fmt.Errorf("parse %q: expected #RRGGBB or #AARRGGBB", value)
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", value, err)
	}
	return &astisub.Color{
		Alpha: uint8(alpha),
		Red:   uint8(rgb >> 16),
		Green: uint8(rgb >> 8),
		Blue:  uint8(rgb),
	}, nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }
