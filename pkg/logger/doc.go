// Package logger provides structured logging for civsync.
//
// It wraps the zerolog library behind a small Logger interface with:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output, optional file output
// - A global logger instance for easy access
//
// Basic Usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	err := logger.Initialize(cfg)
//
//	logger.GetLogger().Info("Sync started")
//	logger.WithField("username", "some_creator").Info("Collecting metadata")
//	logger.WithError(err).Error("Failed to download image")
package logger
