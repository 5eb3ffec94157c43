// Package config loads, normalizes, and validates interviewcoach configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// INTERVIEWCOACH_ENDPOINT. The Config type centralizes every knob the capture
// pipeline and CLI need, so device paths, format preferences, and the analysis
// endpoint are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
