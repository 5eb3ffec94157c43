// Package pipeline drives one interview session at a time from camera capture
// through conversion and upload to a presented analysis.
//
// A Controller owns the session State. Phase changes are computed by the pure
// Transition function and announced to Observers after each step; failures in
// any phase move the session to PhaseFailed with a status line prefixed by the
// kind of failure. A new session is started by calling Start or Analyze again.
package pipeline
