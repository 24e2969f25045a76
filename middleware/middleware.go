// Package middleware implements the outbound send pipeline.
//
// Every message the client writes to the gateway passes through a chain of
// middlewares wrapping the transport send: pacing keeps the session under
// the gateway's message-rate cap, logging records each outbound tag, and
// retry re-sends idempotent messages after transient failures.
package middleware

import (
	"context"

	"ibtws/message"
)

// HandlerFunc is one send operation: deliver msg to the gateway.
type HandlerFunc func(ctx context.Context, msg *message.Outgoing) error

// Middleware wraps a HandlerFunc with additional behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain 将多个中间件组合成一个中间件，排在前面的在最外层
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
