package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"interviewcoach/internal/logging"
	"interviewcoach/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var skipNetwork bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that recording and analysis can work on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			base := cmd.Context()
			if base == nil {
				base = context.Background()
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			problems := 0

			lines := renderSectionHeader("Dependencies", colorize)
			for _, status := range preflight.CheckSystemDeps(base, cfg) {
				kind := statusOK
				detail := status.Command
				if status.Version != "" {
					detail = status.Version
				}
				if !status.Available {
					detail = status.Detail
					kind = statusError
					if status.Optional {
						kind = statusWarn
					} else {
						problems++
					}
				}
				lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			for _, result := range preflight.RunAll(base, cfg, preflight.Options{SkipEndpoint: skipNetwork}) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					problems++
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Paths", colorize)...)
			lines = append(lines,
				renderStatusLine("Sessions database", statusInfo, cfg.SessionsDBPath(), colorize),
				renderStatusLine("Log file", statusInfo, logging.LogFilePath(cfg), colorize),
			)
			if cfg.Metrics.Textfile != "" {
				lines = append(lines, renderStatusLine("Metrics textfile", statusInfo, cfg.Metrics.Textfile, colorize))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if problems > 0 {
				return fmt.Errorf("doctor found %d problem(s)", problems)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipNetwork, "skip-network", false, "Skip the analysis service reachability check")
	return cmd
}
