// Package notifications delivers session outcomes via ntfy.
//
// The service publishes to the topic configured in config.toml and degrades to
// a no-op when no topic is set. Observer adapts it to the pipeline so finished
// and failed sessions produce a push message without the controller knowing
// about HTTP.
package notifications
