// Package logging assembles structured slog loggers and formatting helpers used
// across interviewcoach.
//
// It owns the console/JSON handlers, the rotating log file, and context-aware
// helpers so pipeline code can tag log lines with session IDs, phases, and
// correlation IDs. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
