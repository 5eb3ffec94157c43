package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"interviewcoach/internal/capture"
	"interviewcoach/internal/config"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/media/ffprobe"
)

const outputName = "output.mp4"

// FFmpegOptions configures the ffmpeg-backed engine.
type FFmpegOptions struct {
	Binary         string
	FFprobeBinary  string
	ValidateOutput bool
	// TempRoot is where per-call working directories are created; empty
	// means os.TempDir.
	TempRoot string
}

// FFmpegOptionsFromConfig derives engine options from the loaded configuration.
func FFmpegOptionsFromConfig(cfg *config.Config) FFmpegOptions {
	return FFmpegOptions{
		Binary:         cfg.FFmpegBinary(),
		FFprobeBinary:  cfg.FFprobeBinary(),
		ValidateOutput: cfg.Transcode.ValidateOutput,
	}
}

// FFmpegEngine re-encodes recordings to H.264/AAC MP4 with faststart.
type FFmpegEngine struct {
	opts   FFmpegOptions
	logger *slog.Logger
}

// FFmpegLoader returns a Loader that resolves the ffmpeg binary and checks
// that it can produce the delivery format.
func FFmpegLoader(opts FFmpegOptions, logger *slog.Logger) Loader {
	return func(ctx context.Context) (Engine, error) {
		binary := strings.TrimSpace(opts.Binary)
		if binary == "" {
			binary = "ffmpeg"
		}
		resolved, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("ffmpeg binary %q not found: %w", binary, err)
		}
		caps, err := capture.ProbeCapabilities(ctx, resolved)
		if err != nil {
			return nil, err
		}
		var missing []string
		if !caps.Muxers["mp4"] {
			missing = append(missing, "mp4 muxer")
		}
		for _, encoder := range []string{"libx264", "aac"} {
			if !caps.Encoders[encoder] {
				missing = append(missing, encoder+" encoder")
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("ffmpeg at %s lacks %s", resolved, strings.Join(missing, ", "))
		}
		opts.Binary = resolved
		return &FFmpegEngine{opts: opts, logger: logging.NewComponentLogger(logger, "ffmpeg-transcode")}, nil
	}
}

// Args returns the fixed re-encode command for inputName.
func Args(inputName string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", inputName,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", "faststart",
		outputName,
	}
}

// Transcode writes input into a private working directory, runs ffmpeg, reads
// the output back, and removes the directory.
func (e *FFmpegEngine) Transcode(ctx context.Context, input []byte, inputName string) ([]byte, error) {
	if len(input) == 0 {
		return nil, errors.New("empty input")
	}
	inputName = filepath.Base(strings.TrimSpace(inputName))
	if inputName == "" || inputName == "." || inputName == outputName {
		inputName = "input.bin"
	}

	workDir, err := os.MkdirTemp(e.opts.TempRoot, "interviewcoach-transcode-")
	if err != nil {
		return nil, fmt.Errorf("create working directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			e.logger.Warn("failed to remove transcode working directory",
				logging.String("path", workDir),
				logging.Error(err),
			)
		}
	}()

	if err := os.WriteFile(filepath.Join(workDir, inputName), input, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.opts.Binary, Args(inputName)...)
	cmd.Dir = workDir
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 1024 {
			detail = detail[len(detail)-1024:]
		}
		if detail != "" {
			return nil, fmt.Errorf("ffmpeg: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	outPath := filepath.Join(workDir, outputName)
	if e.opts.ValidateOutput {
		probe, err := ffprobe.Inspect(ctx, e.opts.FFprobeBinary, outPath)
		if err != nil {
			return nil, err
		}
		if err := probe.CheckDelivery(); err != nil {
			return nil, fmt.Errorf("validate output: %w", err)
		}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return data, nil
}
