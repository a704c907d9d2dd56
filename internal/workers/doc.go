// Package workers provides concrete background task handles: the Base
// hook plumbing with context-based cancellation, the generic Func
// wrapper, and the Analysis directory walk.
package workers
