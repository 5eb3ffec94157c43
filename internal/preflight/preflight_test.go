package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"interviewcoach/internal/capture"
	"interviewcoach/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckVideoDevice(t *testing.T) {
	if result := CheckVideoDevice("/dev/null"); !result.Passed {
		t.Fatalf("expected character device to pass, got %s", result.Detail)
	}

	missing := CheckVideoDevice(filepath.Join(t.TempDir(), "video9"))
	if missing.Passed || !strings.Contains(missing.Detail, "no such device") {
		t.Fatalf("unexpected result for missing device: %+v", missing)
	}

	regular := filepath.Join(t.TempDir(), "video0")
	if err := os.WriteFile(regular, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckVideoDevice(regular); result.Passed || !strings.Contains(result.Detail, "not a character device") {
		t.Fatalf("unexpected result for regular file: %+v", result)
	}
	if result := CheckVideoDevice(""); result.Passed {
		t.Fatal("expected failure for unconfigured device")
	}
}

func staticProbe(caps capture.Capabilities, err error) CapabilityProbe {
	return func(context.Context) (capture.Capabilities, error) { return caps, err }
}

func TestCheckFormats(t *testing.T) {
	webmOnly := capture.Capabilities{
		Muxers:   map[string]bool{"webm": true},
		Encoders: map[string]bool{"libvpx": true, "libopus": true},
	}
	prefs := []string{"video/mp4", "video/webm;codecs=vp8,opus"}

	result := CheckFormats(context.Background(), "formats", prefs, staticProbe(webmOnly, nil))
	if !result.Passed || !strings.HasPrefix(result.Detail, "video/webm;codecs=vp8,opus") {
		t.Fatalf("unexpected result %+v", result)
	}

	none := CheckFormats(context.Background(), "formats", prefs, staticProbe(capture.Capabilities{}, nil))
	if none.Passed || !strings.Contains(none.Detail, "fall back to video/mp4") {
		t.Fatalf("expected fallback detail, got %+v", none)
	}

	failed := CheckFormats(context.Background(), "formats", prefs, staticProbe(capture.Capabilities{}, errors.New("exec: ffmpeg not found")))
	if failed.Passed || !strings.Contains(failed.Detail, "probe failed") {
		t.Fatalf("unexpected probe failure result %+v", failed)
	}
	if empty := CheckFormats(context.Background(), "formats", nil, staticProbe(webmOnly, nil)); empty.Passed {
		t.Fatal("expected failure for empty preferences")
	}
}

func TestCheckEndpoint(t *testing.T) {
	allowed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer allowed.Close()
	if result := CheckEndpoint(context.Background(), allowed.URL+"/analyze"); !result.Passed {
		t.Fatalf("405 should count as reachable, got %s", result.Detail)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	if result := CheckEndpoint(context.Background(), broken.URL); result.Passed {
		t.Fatal("expected failure for 502")
	}

	for _, endpoint := range []string{"", "not a url"} {
		if result := CheckEndpoint(context.Background(), endpoint); result.Passed {
			t.Fatalf("expected failure for %q", endpoint)
		}
	}
}

func TestCheckSystemDepsMarksFFprobeOptional(t *testing.T) {
	cfg := config.Default()
	cfg.Transcode.FFmpegBinary = "clearly-not-present-ffmpeg"
	cfg.Transcode.FFprobeBinary = "clearly-not-present-ffprobe"
	cfg.Transcode.ValidateOutput = false

	statuses := CheckSystemDeps(context.Background(), &cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Available || statuses[0].Optional {
		t.Fatalf("ffmpeg should be required and missing: %#v", statuses[0])
	}
	if !statuses[1].Optional {
		t.Fatal("ffprobe should be optional when output validation is disabled")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, Options{})
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.RecordingsDir = t.TempDir()
	cfg.Capture.VideoDevice = "/dev/null"

	caps := capture.Capabilities{
		Muxers:   map[string]bool{"mp4": true},
		Encoders: map[string]bool{"libx264": true, "aac": true},
	}
	results := RunAll(context.Background(), &cfg, Options{SkipEndpoint: true, Probe: staticProbe(caps, nil)})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if !Passed(results) {
		t.Fatal("Passed should agree with individual results")
	}
}
