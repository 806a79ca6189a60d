package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelgen/internal/history"
)

type historyRow struct {
	ID           string  `json:"id"`
	StartedAt    string  `json:"started_at"`
	Day          int     `json:"day"`
	Template     string  `json:"template,omitempty"`
	Status       string  `json:"status"`
	AudioSeconds float64 `json:"audio_seconds"`
	Cards        int     `json:"cards"`
	Elapsed      string  `json:"elapsed,omitempty"`
	Output       string  `json:"output,omitempty"`
	Error        string  `json:"error,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cmd.Context(), cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([]historyRow, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, toHistoryRow(run))
			}
			if asJSON {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderHistory(rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func toHistoryRow(run *history.Run) historyRow {
	row := historyRow{
		ID:           run.ID,
		StartedAt:    run.StartedAt.Local().Format("2006-01-02 15:04"),
		Day:          run.Day,
		Template:     run.Template,
		Status:       string(run.Status),
		AudioSeconds: run.AudioSeconds,
		Cards:        run.CardCount,
		Output:       run.OutputPath,
		Error:        run.ErrorMessage,
	}
	if elapsed := run.Elapsed(); elapsed > 0 {
		row.Elapsed = elapsed.Round(time.Second).String()
	}
	return row
}

func renderHistory(rows []historyRow) string {
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		day := ""
		if row.Day > 0 {
			day = strconv.Itoa(row.Day)
		}
		output := ""
		if row.Output != "" {
			output = filepath.Base(row.Output)
		}
		table = append(table, []string{
			row.StartedAt,
			day,
			row.Template,
			row.Status,
			fmt.Sprintf("%.1fs", row.AudioSeconds),
			strconv.Itoa(row.Cards),
			row.Elapsed,
			output,
		})
	}
	return renderTable(
		[]string{"Started", "Day", "Template", "Status", "Audio", "Cards", "Elapsed", "Output"},
		table,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}
