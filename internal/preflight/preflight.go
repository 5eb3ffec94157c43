package preflight

import (
	"context"

	"interviewcoach/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options tune RunAll.
type Options struct {
	// SkipEndpoint disables the network reachability check.
	SkipEndpoint bool
	// Probe overrides the ffmpeg capability lookup used by CheckFormats.
	Probe CapabilityProbe
}

// RunAll executes every check that applies to cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Recordings directory", cfg.Paths.RecordingsDir),
		CheckVideoDevice(cfg.Capture.VideoDevice),
	}

	probe := opts.Probe
	if probe == nil {
		probe = FFmpegProbe(cfg.FFmpegBinary())
	}
	results = append(results, CheckFormats(ctx, "Recording format", cfg.Capture.PreferredFormats, probe))

	if !opts.SkipEndpoint {
		results = append(results, CheckEndpoint(ctx, cfg.Analysis.Endpoint))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
