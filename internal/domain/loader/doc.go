// Package loader sequences named startup tasks with weighted progress
// reporting. Failures are logged and skipped; cancellation stops the
// sequence between tasks.
package loader
