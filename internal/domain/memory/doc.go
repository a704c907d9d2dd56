// Package memory implements periodic memory reclamation: tracked cache
// eviction, temp file cleanup, weak liveness probes, and forced garbage
// collection, with a rolling history of usage snapshots.
package memory
