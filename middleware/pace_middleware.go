package middleware

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"ibtws/message"
)

// Pace 基于令牌桶限制发送速率，超出速率的消息排队等待而不是被拒绝。
// The gateway disconnects sessions that exceed its per-second message cap,
// so on the client side waiting is the only useful policy. A cancelled or
// expired context releases the waiter with its error.
func Pace(perSecond float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg *message.Outgoing) error {
			if err := limiter.Wait(ctx); err != nil {
				return errors.Wrapf(err, "pacing %s", msg.Tag())
			}
			return next(ctx, msg)
		}
	}
}
