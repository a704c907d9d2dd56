// Package tracing provides lightweight request tracing: every HTTP
// request gets a trace ID, and completed spans are logged through zap on
// a background collector.
package tracing
