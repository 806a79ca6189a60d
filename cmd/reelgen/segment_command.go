package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelgen/internal/alignment"
	"reelgen/internal/captions"
	"reelgen/internal/pipeline"
)

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	var maxSpan float64
	var format string
	var tidy bool

	cmd := &cobra.Command{
		Use:   "segment <words.json|->",
		Short: "Group timed words into caption cards",
		Long: "Reads a JSON word list ([{\"text\",\"start\",\"end\"}] or {\"words\": [...]}) and prints\n" +
			"the caption cards the renderer would burn in.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			words, err := decodeWords(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			if tidy {
				var repairs alignment.Repairs
				words, repairs = alignment.Tidy(words)
				if repairs.Total() > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "tidy: dropped %d blank, clamped %d starts, merged %d zero-length words\n",
						repairs.Blank, repairs.Clamped, repairs.Merged)
				}
			}
			span := maxSpan
			if !cmd.Flags().Changed("max-span") {
				span = cfg.Captions.MaxSpanSeconds
			}
			cards, err := captions.Segment(words, span)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(strings.TrimSpace(format)) {
			case "", "table":
				fmt.Fprintln(out, renderCards(cards))
				summary := captions.Stats(cards, span)
				fmt.Fprintf(out, "%d words in %d cards over %.3fs (longest %.3fs, %d over limit)\n",
					summary.Words, summary.Cards, summary.Duration, summary.LongestSpan, summary.Oversized)
				return nil
			case "json":
				return writeJSON(cmd, cards)
			case "srt":
				return captions.WriteSRT(out, cards)
			case "ass":
				return captions.WriteASS(out, cards, pipeline.CaptionStyle(cfg), captions.Canvas{
					Width:  cfg.Render.Width,
					Height: cfg.Render.Height,
				})
			default:
				return fmt.Errorf("unsupported format %q (use table, json, srt or ass)", format)
			}
		},
	}

	cmd.Flags().Float64Var(&maxSpan, "max-span", 1.0, "Maximum card duration in seconds (default: captions.max_span_seconds)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, srt or ass")
	cmd.Flags().BoolVar(&tidy, "tidy", false, "Repair timing jitter within 10ms and blank or zero-length words before segmenting")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read words: %w", err)
	}
	return data, nil
}

// wordRecord accepts both the "text" key written by reelgen and the "word"
// key of transcription responses.
type wordRecord struct {
	Text  string  `json:"text"`
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// decodeWords accepts a bare array or an object with a "words" array.
func decodeWords(data []byte) ([]captions.WordInterval, error) {
	data = bytes.TrimSpace(data)
	var records []wordRecord
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Words []wordRecord `json:"words"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, err
		}
		records = wrapped.Words
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	words := make([]captions.WordInterval, 0, len(records))
	for _, r := range records {
		text := r.Text
		if text == "" {
			text = r.Word
		}
		words = append(words, captions.WordInterval{Text: text, Start: r.Start, End: r.End})
	}
	return words, nil
}

func renderCards(cards []captions.Card) string {
	rows := make([][]string, 0, len(cards))
	for i, card := range cards {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.3f", card.Start),
			fmt.Sprintf("%.3f", card.End),
			fmt.Sprintf("%.3f", card.Span()),
			card.Text,
		})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Span", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}
