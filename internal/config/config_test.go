package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"interviewcoach/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("INTERVIEWCOACH_ENDPOINT", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "interviewcoach")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Analysis.FieldName != "file" {
		t.Fatalf("unexpected field name: %q", cfg.Analysis.FieldName)
	}
	if cfg.Analysis.Filename != "interview.mp4" {
		t.Fatalf("unexpected filename: %q", cfg.Analysis.Filename)
	}
	if got := cfg.Capture.PreferredFormats; len(got) != 4 || got[0] != "video/mp4" {
		t.Fatalf("unexpected preferred formats: %v", got)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.LogDir(), cfg.Paths.RecordingsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "interviewcoach.toml")
	t.Setenv("INTERVIEWCOACH_ENDPOINT", "")

	type payload struct {
		Capture struct {
			PreferredFormats []string `toml:"preferred_formats"`
		} `toml:"capture"`
		Analysis struct {
			Endpoint string `toml:"endpoint"`
		} `toml:"analysis"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Capture.PreferredFormats = []string{" Video/WebM ", "video/webm", "video/mp4"}
	custom.Analysis.Endpoint = "http://localhost:8000/api/v1/analyze-interview"
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if got := cfg.Capture.PreferredFormats; len(got) != 2 || got[0] != "video/webm" || got[1] != "video/mp4" {
		t.Fatalf("expected normalized, de-duplicated formats, got %v", got)
	}
	if cfg.Analysis.Endpoint != custom.Analysis.Endpoint {
		t.Fatalf("unexpected endpoint: %q", cfg.Analysis.Endpoint)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestEndpointEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("INTERVIEWCOACH_ENDPOINT", "http://127.0.0.1:9999/analyze")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Analysis.Endpoint != "http://127.0.0.1:9999/analyze" {
		t.Fatalf("expected env endpoint, got %q", cfg.Analysis.Endpoint)
	}
}

func TestValidateRejectsBadEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Endpoint = "ftp://example.com/upload"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "analysis.endpoint") {
		t.Fatalf("expected endpoint validation error, got %v", err)
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected log level validation error")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("INTERVIEWCOACH_ENDPOINT", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if len(cfg.Transcode.CanonicalFormats) != 2 {
		t.Fatalf("unexpected canonical formats: %v", cfg.Transcode.CanonicalFormats)
	}
}
