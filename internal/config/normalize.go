package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeTranscode()
	c.normalizeAnalysis()
	c.normalizeNotifications()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RecordingsDir) == "" {
		c.Paths.RecordingsDir = defaultRecordingsDir
	}
	if c.Paths.RecordingsDir, err = expandPath(c.Paths.RecordingsDir); err != nil {
		return fmt.Errorf("paths.recordings_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.VideoDevice = strings.TrimSpace(c.Capture.VideoDevice)
	if c.Capture.VideoDevice == "" {
		c.Capture.VideoDevice = defaultVideoDevice
	}
	c.Capture.AudioDevice = strings.TrimSpace(c.Capture.AudioDevice)
	if c.Capture.AudioDevice == "" {
		c.Capture.AudioDevice = defaultAudioDevice
	}
	c.Capture.InputFormat = strings.ToLower(strings.TrimSpace(c.Capture.InputFormat))
	if c.Capture.InputFormat == "" {
		c.Capture.InputFormat = defaultInputFormat
	}
	c.Capture.AudioInputFormat = strings.ToLower(strings.TrimSpace(c.Capture.AudioInputFormat))
	if c.Capture.AudioInputFormat == "" {
		c.Capture.AudioInputFormat = defaultAudioInputFormat
	}
	c.Capture.PreferredFormats = normalizeFormatList(c.Capture.PreferredFormats, defaultPreferredFormats())
	if c.Capture.ChunkBytes <= 0 {
		c.Capture.ChunkBytes = defaultChunkBytes
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	c.Transcode.CanonicalFormats = normalizeFormatList(c.Transcode.CanonicalFormats, defaultCanonicalFormats())
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.Endpoint = strings.TrimSpace(c.Analysis.Endpoint)
	if value, ok := os.LookupEnv(endpointEnvVar); ok && strings.TrimSpace(value) != "" {
		c.Analysis.Endpoint = strings.TrimSpace(value)
	}
	if c.Analysis.Endpoint == "" {
		c.Analysis.Endpoint = defaultAnalysisEndpoint
	}
	c.Analysis.FieldName = strings.TrimSpace(c.Analysis.FieldName)
	if c.Analysis.FieldName == "" {
		c.Analysis.FieldName = defaultAnalysisFieldName
	}
	c.Analysis.Filename = strings.TrimSpace(c.Analysis.Filename)
	if c.Analysis.Filename == "" {
		c.Analysis.Filename = defaultAnalysisFilename
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(ntfyTopicEnvVar); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeMetrics() error {
	var err error
	c.Metrics.Textfile = strings.TrimSpace(c.Metrics.Textfile)
	if c.Metrics.Textfile == "" {
		return nil
	}
	if c.Metrics.Textfile, err = expandPath(c.Metrics.Textfile); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

// normalizeFormatList trims, lower-cases, and de-duplicates format identifiers
// while preserving their order. An empty result falls back to defaults.
func normalizeFormatList(values []string, fallback []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
