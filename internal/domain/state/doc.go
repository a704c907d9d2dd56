// Package state implements the centralized application state for the file
// organizer: theme, font size, selected volume, running flags, the global
// worker-handle registry, a flat cache table, and the typed event bus that
// decouples mutations from the UI.
//
// Every externally-visible mutation emits exactly one event synchronously
// before the mutating call returns. Observers are invoked outside all
// manager locks, in registration order, with per-observer failure
// isolation.
//
// Components needing the state receive a *Manager explicitly; Default()
// exists for the application wiring that wants the process-wide instance.
package state
