/*
Package monitoring provides Prometheus metrics for the coordination core.

# Overview

Each Metrics instance owns a private registry, so servers and tests can
construct collectors independently without duplicate-registration panics.

Tracked concerns:

  - HTTP request latency and throughput
  - Worker admissions, rejections, terminal statuses, run durations
  - Cache size, evictions, reclamation cycles, temp files freed
  - Event-bus dispatch counts by event type
  - WebSocket event-stream connections

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordWorkerStarted("analysis")
	metrics.RecordWorkerRejected("analysis", "type_limit")
*/
package monitoring
