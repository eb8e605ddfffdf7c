// Package tracing is a thin wrapper around OpenTelemetry used to run every
// lifecycle operation in its own span. Without Init the global no-op
// provider is used and spans cost nothing.
package tracing
