// Package observe wires OpenTelemetry tracing and metrics plus structured
// logging around bridge operations. Log output is sanitized so credentials
// never reach a log line, and every telemetry surface degrades to a no-op
// when disabled.
package observe
