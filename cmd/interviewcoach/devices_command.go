package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"interviewcoach/internal/devices"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List and watch cameras",
	}
	devicesCmd.AddCommand(newDevicesListCommand(ctx))
	devicesCmd.AddCommand(newDevicesWatchCommand(ctx))
	return devicesCmd
}

func newDevicesListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List video devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			found, err := devices.Lister{}.List(cfg.Capture.VideoDevice)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, found)
			}
			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No video devices found")
				return nil
			}
			rows := make([][]string, 0, len(found))
			for _, dev := range found {
				name := dev.Name
				if name == "" {
					name = "-"
				}
				rows = append(rows, []string{strconv.Itoa(dev.Index), dev.Path, name, yesNo(dev.Configured)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Device", "Name", "Configured"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDevicesWatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print cameras as they are plugged in or removed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			base := cmd.Context()
			if base == nil {
				base = context.Background()
			}
			watchCtx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			monitor := devices.NewMonitor(cfg.Capture.VideoDevice, func(_ context.Context, event devices.Event) {
				if jsonOutput {
					_ = writeJSON(cmd, event)
					return
				}
				kind := statusInfo
				if event.Action == "remove" {
					kind = statusWarn
				}
				message := event.Device
				if event.Name != "" {
					message += " (" + event.Name + ")"
				}
				if event.Configured {
					message += " [configured camera]"
				}
				fmt.Fprintln(out, renderStatusLine(titleCaser.String(event.Action), kind, message, colorize))
			}, logger)

			if err := monitor.Start(watchCtx); err != nil {
				return err
			}
			defer monitor.Stop()
			if !jsonOutput {
				fmt.Fprintln(cmd.ErrOrStderr(), "Watching for camera changes; press Ctrl+C to exit.")
			}
			<-watchCtx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print one JSON object per event")
	return cmd
}
