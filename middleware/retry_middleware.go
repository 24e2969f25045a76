package middleware

import (
	"context"
	"log/slog"
	"time"

	"ibtws/message"
)

// Retry re-sends after a failure with exponential backoff. Only idempotent
// messages are retried: an order whose first copy may have reached the
// gateway must never be sent twice, so PlaceOrder and the cancels fall
// through on the first error.
func Retry(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg *message.Outgoing) error {
			err := next(ctx, msg)
			if err == nil || !msg.Idempotent() {
				return err
			}
			for i := 0; i < maxRetries; i++ {
				select {
				case <-time.After(baseDelay * time.Duration(1<<i)): // Exponential backoff
				case <-ctx.Done():
					return err
				}
				slog.Debug("retrying send", "tag", msg.Tag(), "attempt", i+1, "err", err)
				if err = next(ctx, msg); err == nil {
					return nil
				}
			}
			return err
		}
	}
}
