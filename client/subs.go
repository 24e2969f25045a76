package client

import (
	"context"
	"sync"
	"sync/atomic"

	"ibtws/message"
)

// Keys for streams fed by frames that carry no request id. Account
// updates and positions are connection-wide feeds, so one entry each.
const (
	keyAccountUpdates = "account updates"
	keyPositions      = "positions"
)

// Subscription is a live stream of gateway events. Events stay open
// until Cancel, connection loss, or client close; after the channel
// closes, Err reports why (nil for a clean cancel or local close).
type Subscription struct {
	c         *Client
	key       any
	id        int64 // 0 for name-keyed streams
	cancelMsg *message.Outgoing

	mu      sync.Mutex
	events  chan message.Event
	closed  bool
	err     error
	dropped atomic.Int64
	gen     uint64
}

// Events returns the stream. The channel closes when the subscription
// ends; consume promptly, a full buffer drops events.
func (s *Subscription) Events() <-chan message.Event {
	return s.events
}

// Err reports why the stream ended. Meaningful once Events is closed;
// nil means the subscription was cancelled or the client closed cleanly.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Dropped reports how many events were discarded because the consumer
// fell behind the buffer.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// ID returns the request id the stream is keyed by, 0 for streams
// keyed by name.
func (s *Subscription) ID() int64 {
	return s.id
}

// Cancel ends the stream and tells the gateway to stop sending.
// Idempotent: cancelling a subscription that already ended (including
// by connection loss) is a no-op. The wire cancel is skipped when the
// connection is already gone.
func (s *Subscription) Cancel(ctx context.Context) error {
	if !s.close(nil) {
		return nil
	}
	s.c.subs.remove(s.key)
	if s.cancelMsg == nil {
		return nil
	}
	send, err := s.c.handler()
	if err != nil {
		return nil
	}
	return send(ctx, s.cancelMsg)
}

// deliver hands an event to the consumer without ever blocking the
// dispatcher. A full buffer drops the event and counts it.
func (s *Subscription) deliver(ev message.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		n := s.dropped.Add(1)
		if n == 1 || n%100 == 0 {
			s.c.logger.Warn("subscriber lagging, dropping events",
				"key", s.key,
				"generation", s.gen,
				"dropped", n)
		}
	}
}

// close closes the event channel once, recording err as the terminal
// cause. Reports whether this call performed the close.
func (s *Subscription) close(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.err = err
	close(s.events)
	return true
}

// subTable tracks active subscriptions, keyed by request id, order id,
// or a reserved name for connection-wide feeds.
type subTable struct {
	subs sync.Map // any -> *Subscription
}

func (t *subTable) add(key any, s *Subscription) bool {
	_, loaded := t.subs.LoadOrStore(key, s)
	return !loaded
}

func (t *subTable) lookup(key any) (*Subscription, bool) {
	v, ok := t.subs.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Subscription), true
}

func (t *subTable) remove(key any) {
	t.subs.Delete(key)
}

// closeAll ends every live subscription with err. Called exactly once
// per connection, when the dispatcher exits.
func (t *subTable) closeAll(err error) {
	t.subs.Range(func(key, v any) bool {
		t.subs.Delete(key)
		v.(*Subscription).close(err)
		return true
	})
}
