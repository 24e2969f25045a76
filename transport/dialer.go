package transport

import (
	"context"
	"time"

	"log/slog"

	"github.com/pkg/errors"
)

// Redial defaults.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultMaxDelay  = 8 * time.Second
)

// Redialer dials with retry. The delay doubles after every failed attempt
// up to MaxDelay, so a briefly restarting gateway is caught quickly while
// a dead one is not hammered. The protocol has no session resumption:
// every attempt runs the full handshake, and state recovery belongs to
// the layer above.
type Redialer struct {
	Config  Config
	Options []Option

	// Attempts caps the number of dials; zero means DefaultAttempts.
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Logger    *slog.Logger
}

// Dial tries until a connection is established, the attempt budget runs
// out, or ctx is done. The last dial error is returned.
func (r *Redialer) Dial(ctx context.Context) (*Conn, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := r.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}
	maxDelay := r.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := r.Config.withDefaults()

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			logger.Debug("redialing", "attempt", i+1, "delay", delay, "addr", cfg.Addr())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
		conn, err := Dial(ctx, cfg, r.Options...)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "dial %s failed after %d attempts", cfg.Addr(), attempts)
}
