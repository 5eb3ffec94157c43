package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCapture() error {
	if len(c.Capture.PreferredFormats) == 0 {
		return errors.New("capture.preferred_formats must include at least one format")
	}
	for _, format := range c.Capture.PreferredFormats {
		if !strings.Contains(format, "/") {
			return fmt.Errorf("capture.preferred_formats: %q is not a MIME type", format)
		}
	}
	if c.Capture.ChunkBytes < 1024 {
		return errors.New("capture.chunk_bytes must be at least 1024")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	parsed, err := url.Parse(c.Analysis.Endpoint)
	if err != nil {
		return fmt.Errorf("analysis.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("analysis.endpoint must be an http(s) URL, got %q", c.Analysis.Endpoint)
	}
	if parsed.Host == "" {
		return errors.New("analysis.endpoint must include a host")
	}
	if strings.ContainsAny(c.Analysis.Filename, `/\`) {
		return errors.New("analysis.filename must not contain path separators")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
