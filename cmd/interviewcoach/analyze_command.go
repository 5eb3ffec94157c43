package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"interviewcoach/internal/capture"
	"interviewcoach/internal/config"
	"interviewcoach/internal/recorder"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var noReport bool
	var mimeType string

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Upload an existing recording for analysis",
		Long: `Analyze a recording made elsewhere. MP4 and QuickTime files are uploaded
as-is; other formats are converted to MP4 first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read recording: %w", err)
			}
			if strings.TrimSpace(mimeType) == "" {
				mimeType = capture.MIMETypeForPath(path)
			}

			controller, err := buildController(cmd.Context(), cfg, logger, store, pipelineOptions{
				render:        !noReport && !jsonOutput,
				keepArtifacts: true,
				out:           cmd.OutOrStdout(),
				statusOut:     cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			base := cmd.Context()
			if base == nil {
				base = context.Background()
			}
			state, err := controller.Analyze(base, recorder.FinalizedRecording{Data: data, MIMEType: mimeType}, path)
			if jsonOutput {
				if encErr := writeJSON(cmd, sessionJSONFromState(state)); encErr != nil {
					return encErr
				}
			}
			return sessionError(state, err)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the finished session as JSON")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Do not print the analysis report")
	cmd.Flags().StringVar(&mimeType, "mime-type", "", "Override the MIME type guessed from the file extension")
	return cmd
}
