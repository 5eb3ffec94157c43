package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"interviewcoach/internal/pipeline"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var noReport bool
	var keepArtifacts bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record an answer and upload it for analysis",
		Long: `Start the camera and microphone, record until Enter or Ctrl+C is pressed,
then convert the recording to MP4 if needed and upload it to the analysis
service. A second Ctrl+C aborts conversion or upload.`,
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
			recoverInterrupted(cmd.Context(), store, logger)

			statusOut := cmd.ErrOrStderr()
			controller, err := buildController(cmd.Context(), cfg, logger, store, pipelineOptions{
				withCapture:   true,
				render:        !noReport && !jsonOutput,
				keepArtifacts: keepArtifacts,
				out:           cmd.OutOrStdout(),
				statusOut:     statusOut,
			})
			if err != nil {
				return err
			}

			signals := make(chan os.Signal, 2)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(signals)

			base := cmd.Context()
			if base == nil {
				base = context.Background()
			}
			if err := controller.Start(base); err != nil {
				return err
			}
			fmt.Fprintln(statusOut, "Press Enter or Ctrl+C to stop recording.")

			select {
			case <-waitForEnter(cmd.InOrStdin()):
			case <-signals:
			case <-base.Done():
				controller.Abandon(context.WithoutCancel(base), "recording cancelled")
				return base.Err()
			}

			// A second interrupt cancels the upload.
			runCtx, cancel := context.WithCancel(base)
			defer cancel()
			go func() {
				select {
				case <-signals:
					cancel()
				case <-runCtx.Done():
				}
			}()

			state, err := controller.Stop(runCtx)
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
	cmd.Flags().BoolVar(&keepArtifacts, "keep-artifacts", true, "Keep the recording and uploaded file in the session directory")
	return cmd
}

// waitForEnter closes the returned channel when a line (or EOF) is read.
func waitForEnter(in io.Reader) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		reader := bufio.NewReader(in)
		_, _ = reader.ReadString('\n')
	}()
	return done
}

// sessionError turns a terminal session into the command's exit error.
func sessionError(state pipeline.State, err error) error {
	if state.Phase == pipeline.PhaseFailed {
		if state.Status != "" {
			return errors.New(state.Status)
		}
		if err != nil {
			return err
		}
		return errors.New("session failed")
	}
	return err
}
