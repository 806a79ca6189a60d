package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelgen/internal/logs"
)

const logFilePattern = "reelgen-*.log"

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var filters logs.Filters

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the newest reelgen log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path, err := logs.Latest(cfg.Paths.LogDir, logFilePattern)
			if err != nil {
				if errors.Is(err, logs.ErrNoLogs) && !follow {
					fmt.Fprintln(out, "No log entries available")
					return nil
				}
				return err
			}

			var chunk logs.Chunk
			if lines == 0 {
				chunk, err = logs.ReadFrom(path, 0)
			} else {
				chunk, err = logs.Tail(path, max(lines, 0))
			}
			if err != nil {
				return fmt.Errorf("tail logs: %w", err)
			}
			printed := false
			for _, line := range filters.Apply(chunk.Lines) {
				fmt.Fprintln(out, line)
				printed = true
			}
			if !follow {
				if !printed {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return logs.Follow(runCtx, path, chunk.Offset, 500*time.Millisecond, func(line string) {
				if filters.Match(line) {
					fmt.Fprintln(out, line)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&filters.RunID, "run", "", "Only show lines for this run ID")
	cmd.Flags().StringVar(&filters.Stage, "stage", "", "Only show lines for this stage")
	cmd.Flags().StringVar(&filters.Component, "component", "", "Only show lines from this component")
	cmd.Flags().StringVar(&filters.Level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filters.Search, "search", "", "Case-insensitive substring match")
	return cmd
}
