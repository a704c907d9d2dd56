// Package types defines shared types for the coordination core.
//
// These types form the contract between the three managers (application
// state, memory, workers), the background task handles they coordinate,
// and the API layer that exposes them to the UI.
package types
