// Package http provides the REST handlers over the three coordination
// managers: application state, memory, and workers.
package http
