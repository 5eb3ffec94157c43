package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"interviewcoach/internal/capture"
	"interviewcoach/internal/config"
	"interviewcoach/internal/deps"
)

const (
	endpointTimeout = 5 * time.Second
	probeTimeout    = 10 * time.Second
)

// CapabilityProbe returns the capability table of the local ffmpeg build.
type CapabilityProbe func(ctx context.Context) (capture.Capabilities, error)

// FFmpegProbe probes binary with -muxers and -encoders.
func FFmpegProbe(binary string) CapabilityProbe {
	return func(ctx context.Context) (capture.Capabilities, error) {
		return capture.ProbeCapabilities(ctx, binary)
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckVideoDevice verifies the camera node exists, is a character device,
// and can be opened read/write by the current user.
func CheckVideoDevice(path string) Result {
	const name = "Camera"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "capture.video_device not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no such device; is a camera connected?)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a character device)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		hint := ""
		if errors.Is(err, unix.EACCES) {
			hint = "; add your user to the video group"
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v%s)", path, err, hint)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (accessible)", path)}
}

// CheckFormats runs the codec negotiator against the probed capabilities and
// reports which preference would be recorded.
func CheckFormats(ctx context.Context, name string, preferences []string, probe CapabilityProbe) Result {
	if len(preferences) == 0 {
		return Result{Name: name, Detail: "capture.preferred_formats is empty"}
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	caps, err := probe(probeCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("capability probe failed (%v)", err)}
	}

	var supported []string
	for _, candidate := range preferences {
		if caps.Supports(candidate) {
			supported = append(supported, candidate)
		}
	}
	chosen := capture.Negotiate(preferences, caps.Supports)
	if len(supported) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("no preferred format is supported; recording would fall back to %s", chosen)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (supported: %s)", chosen, strings.Join(supported, ", "))}
}

// CheckEndpoint verifies the analysis service answers HTTP. Any response
// below 500 counts as reachable since the service only accepts POST uploads.
func CheckEndpoint(ctx context.Context, endpoint string) Result {
	const name = "Analysis service"

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Result{Name: name, Detail: "analysis.endpoint not configured"}
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("invalid endpoint %q", endpoint)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, endpointTimeout)
	defer cancel()

	client := &http.Client{Timeout: endpointTimeout}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("%s (server error %d)", parsed.Host, resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", parsed.Host)}
}

// CheckSystemDeps evaluates the external binaries for cfg.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for capture and MP4 conversion",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Validates converted recordings",
			Optional:    !cfg.Transcode.ValidateOutput,
		},
	}
	return deps.WithVersions(ctx, deps.CheckBinaries(requirements))
}

func summarizeNetworkError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (service unreachable)"
	}
	return err.Error()
}
