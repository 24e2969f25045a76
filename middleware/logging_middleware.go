package middleware

import (
	"context"
	"log/slog"
	"time"

	"ibtws/message"
)

// Logging records every outbound message: tag, send duration, and the error
// if the send failed. Successful sends log at debug so a quiet production
// logger only sees failures.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg *message.Outgoing) error {
			start := time.Now()
			err := next(ctx, msg)
			if err != nil {
				logger.Warn("send failed",
					"tag", msg.Tag(),
					"duration", time.Since(start),
					"err", err)
				return err
			}
			logger.Debug("sent",
				"tag", msg.Tag(),
				"duration", time.Since(start))
			return nil
		}
	}
}
