// Package settings persists user preferences as a TOML file with atomic
// writes. It backs the state manager's configuration collaborator.
package settings
