package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reelgen/internal/deps"
	"reelgen/internal/history"
	"reelgen/internal/pipeline"
	"reelgen/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts pipeline.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate, render and publish today's reel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			publishing := cfg.Publish.Enabled && !opts.SkipPublish
			if failed := preflight.Failed(preflight.RunAll(cfg, publishing)); len(failed) > 0 {
				out := cmd.ErrOrStderr()
				for _, line := range checkLines(failed, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return fmt.Errorf("preflight failed: %d check(s) did not pass", len(failed))
			}
			if missing := deps.Missing(preflight.CheckSystemDeps(signalCtx, cfg)); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, dep := range missing {
					names = append(names, dep.Command)
				}
				return fmt.Errorf("missing required tools: %s", strings.Join(names, ", "))
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			store, err := history.Open(signalCtx, cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			p, err := pipeline.Build(cfg, store, logger)
			if err != nil {
				return err
			}
			report, runErr := p.Run(signalCtx, opts)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&opts.Template, "template", "", "Prompt template: default, duolingo or file (default: time based)")
	cmd.Flags().IntVar(&opts.Day, "day", 0, "Day number override (default: days since script.start_date)")
	cmd.Flags().BoolVar(&opts.SkipPublish, "no-publish", false, "Render only; do not upload")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Output file (default: render.output_name in paths.output_dir)")
	return cmd
}

func printReport(out io.Writer, report *pipeline.Report) {
	if report.Output == "" {
		fmt.Fprintf(out, "Run %s did not produce a video\n", report.RunID)
		return
	}
	fmt.Fprintf(out, "Run:        %s\n", report.RunID)
	fmt.Fprintf(out, "Day:        %d (%s)\n", report.Day, report.Template)
	fmt.Fprintf(out, "Narration:  %.1fs, %d words (%.0f%% of script heard), %d captions\n", report.AudioSeconds, report.Words, report.Coverage*100, report.Cards)
	fmt.Fprintf(out, "Output:     %s\n", report.Output)
	if report.SRTPath != "" {
		fmt.Fprintf(out, "Subtitles:  %s\n", report.SRTPath)
	}
	if report.Title != "" {
		fmt.Fprintf(out, "Published:  %s\n", yesNo(report.Published))
	}
}
