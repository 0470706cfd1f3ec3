package logger

import (
	"github.com/rs/zerolog"
)

// LogPageFetch logs one listing page request
func LogPageFetch(username string, page int, itemCount int, hasNext bool) {
	GetLogger().WithFields(map[string]interface{}{
		"username":   username,
		"page":       page,
		"item_count": itemCount,
		"has_next":   hasNext,
	}).Debug("Listing page fetched")
}

// LogDownload logs the outcome of one image download
func LogDownload(username string, imageID int64, success bool, err error) {
	fields := map[string]interface{}{
		"username": username,
		"image_id": imageID,
		"success":  success,
	}

	logger := GetLogger().WithFields(fields)

	if err != nil {
		logger.WithError(err).Error("Download failed")
	} else if success {
		logger.Info("Download completed")
	} else {
		logger.Warn("Download skipped")
	}
}

// LogSyncSummary logs the result counts of a sync run
func LogSyncSummary(username string, added, removed, downloaded, failed int) {
	GetLogger().WithFields(map[string]interface{}{
		"username":   username,
		"added":      added,
		"removed":    removed,
		"downloaded": downloaded,
		"failed":     failed,
	}).Info("Sync run summary")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
