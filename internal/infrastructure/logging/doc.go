// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// FileConfig additionally tees output to a log file so desktop session
// diagnostics survive process exit.
//
// Example:
//
//	logger := logging.NewDefault()
//	logger.Info("coordinator starting", zap.String("port", "8600"))
//	logger.Error("settings save failed", zap.Error(err))
package logging
