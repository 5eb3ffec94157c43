// Package analysis models the structured response of the remote interview
// analysis service.
package analysis
