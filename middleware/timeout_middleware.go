package middleware

import (
	"context"
	"time"

	"ibtws/message"
)

// Timeout bounds one send attempt, including any time spent queued behind
// the pacer. The deadline applies to the send only, never to the reply:
// replies arrive asynchronously through the dispatcher.
func Timeout(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg *message.Outgoing) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, msg)
		}
	}
}
