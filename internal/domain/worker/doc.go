// Package worker implements admission control and lifecycle tracking for
// background tasks. Workers move PENDING -> RUNNING -> terminal under
// global and per-type concurrency ceilings; terminal records land in a
// bounded history.
package worker
