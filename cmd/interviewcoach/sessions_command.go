package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"interviewcoach/internal/pipeline"
	"interviewcoach/internal/report"
	"interviewcoach/internal/sessions"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"history"},
		Short:   "Inspect past interview sessions",
	}
	sessionsCmd.AddCommand(newSessionsListCommand(ctx))
	sessionsCmd.AddCommand(newSessionsShowCommand(ctx))
	sessionsCmd.AddCommand(newSessionsRemoveCommand(ctx))
	sessionsCmd.AddCommand(newSessionsClearCommand(ctx))
	return sessionsCmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var phaseFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			phases := make([]pipeline.Phase, 0, len(phaseFlags))
			for _, raw := range phaseFlags {
				phase, ok := pipeline.ParsePhase(raw)
				if !ok {
					return fmt.Errorf("unknown phase %q", raw)
				}
				phases = append(phases, phase)
			}
			records, err := store.List(cmd.Context(), limit, phases...)
			if err != nil {
				return err
			}

			if jsonOutput {
				items := make([]sessionJSON, 0, len(records))
				for _, rec := range records {
					item, err := sessionJSONFromRecord(rec, false)
					if err != nil {
						return err
					}
					items = append(items, item)
				}
				return writeJSON(cmd, items)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No sessions recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Started", "Phase", "Format", "Size", "Duration", "Status"},
				sessionRows(records),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			stats, err := store.Stats(cmd.Context())
			if err == nil {
				fmt.Fprintln(out, summarizeStats(stats))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to show (0 for all)")
	cmd.Flags().StringSliceVar(&phaseFlags, "phase", nil, "Only show sessions in these phases")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSessionsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session and re-render its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("session %s not found", strings.TrimSpace(args[0]))
			}

			if jsonOutput {
				item, err := sessionJSONFromRecord(rec, true)
				if err != nil {
					return err
				}
				return writeJSON(cmd, item)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderDetails([][2]string{
				{"ID", rec.ID},
				{"Origin", string(rec.Origin)},
				{"Phase", phaseLabel(rec.Phase)},
				{"Status", rec.Status},
				{"Failed in", phaseLabelIfSet(rec.FailedPhase)},
				{"Error", rec.ErrorMessage},
				{"Format", rec.MIMEType},
				{"Recording", formatBytes(rec.RecordingBytes)},
				{"Uploaded", formatBytes(rec.ArtifactBytes)},
				{"Converted", yesNo(rec.Transcoded)},
				{"Source file", rec.SourcePath},
				{"Artifacts", rec.ArtifactDir},
				{"Started", formatTime(rec.StartedAt)},
				{"Duration", formatDuration(rec.Duration())},
			}))
			if !rec.HasResult() {
				return nil
			}
			result, err := rec.Result()
			if err != nil {
				return fmt.Errorf("stored analysis is unreadable: %w", err)
			}
			return report.Render(out, result, report.RenderOptions{Color: report.ShouldColorize(out), SessionID: rec.ID})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON including the analysis")
	return cmd
}

func newSessionsRemoveCommand(ctx *commandContext) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a session from history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("session %s not found", strings.TrimSpace(args[0]))
			}
			if _, err := store.Remove(cmd.Context(), rec.ID); err != nil {
				return err
			}
			if purge && rec.ArtifactDir != "" {
				if err := os.RemoveAll(rec.ArtifactDir); err != nil {
					return fmt.Errorf("remove artifacts: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session %s\n", rec.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also delete the session's artifact directory")
	return cmd
}

func newSessionsClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all session history",
		Long:  "Delete every session row. Artifact directories are left on disk.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear history without --yes")
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d session(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}

func sessionRows(records []*sessions.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			shortID(rec.ID),
			formatTime(rec.StartedAt),
			phaseLabel(rec.Phase),
			formatMIME(rec.MIMEType),
			formatBytes(rec.RecordingBytes),
			formatDuration(rec.Duration()),
			truncate(rec.Status, 48),
		})
	}
	return rows
}

func summarizeStats(stats map[pipeline.Phase]int) string {
	parts := make([]string, 0, len(stats))
	total := 0
	for _, phase := range pipeline.AllPhases() {
		if count := stats[phase]; count > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", strings.ToLower(phaseLabel(phase)), count))
			total += count
		}
	}
	return fmt.Sprintf("%d session(s): %s", total, strings.Join(parts, ", "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func phaseLabelIfSet(phase pipeline.Phase) string {
	if phase == "" {
		return ""
	}
	return phaseLabel(phase)
}

func formatMIME(mimeType string) string {
	if mimeType == "" {
		return "-"
	}
	return mimeType
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
