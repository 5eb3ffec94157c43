// Package services defines shared utilities consumed by the pipeline phases
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, phase names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so every failure can be
//     classified with errors.Is at the phase boundary.
//   - UploadError, which carries the HTTP status and body of a rejected upload.
package services
