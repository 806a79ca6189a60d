package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelgen/internal/deps"
	"reelgen/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, credentials, tools and API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var results []preflight.Result
			if offline {
				results = preflight.RunAll(cfg, true)
			} else {
				results = preflight.Doctor(cmd.Context(), cfg)
			}
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			lines = append(lines, renderStatusLine("Script provider", statusInfo, cfg.Script.Provider, colorize))
			lines = append(lines, renderStatusLine("Aligner", statusInfo, cfg.Alignment.Provider, colorize))
			lines = append(lines, renderStatusLine("Publishing", statusInfo, yesNo(cfg.Publish.Enabled), colorize))
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, checkLines(results, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(statuses, colorize)...)
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			problems := len(preflight.Failed(results)) + len(deps.Missing(statuses))
			if problems > 0 {
				return fmt.Errorf("doctor found %d problem(s)", problems)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip API reachability checks")
	return cmd
}
