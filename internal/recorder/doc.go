// Package recorder buffers encoded media chunks during capture and assembles
// them into a single FinalizedRecording when capture stops.
//
// The lifecycle is Idle -> Capturing -> Stopped. Stop is idempotent: every
// call returns the same recording. A zero-length recording is returned as-is;
// callers decide that it is terminal.
package recorder
