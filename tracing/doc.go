// Package tracing wraps OpenTelemetry so that governance engines can open
// spans around tracked executions and approval decisions without importing
// the SDK directly. Spans are no-ops until Init or InitWithExporter runs.
package tracing
