// Package logger provides a small factory around log/slog plus typed
// attribute helpers used across the service.
//
// The helpers keep attribute keys consistent so log aggregation queries do
// not have to deal with per-package spelling variations:
//
//	log.LogAttrs(ctx, slog.LevelWarn, "delivery failed",
//		logger.NotificationID(n.ID),
//		logger.UserID(n.UserID),
//		logger.Error(err),
//	)
package logger
