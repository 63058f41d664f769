// Package logger provides a slog.Logger factory with JSON/text handlers
// and attribute helpers for the fields the notification stack logs most:
// channel, notification id, job id, reference.
//
//	log := logger.New(logger.WithService("notifier"), logger.WithDevelopment())
//	log.Info("channel send failed", logger.Channel("postmark"), logger.Error(err))
package logger
