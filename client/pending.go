package client

import (
	"context"
	"sync"
	"sync/atomic"

	"ibtws/message"
)

// Keys for calls whose replies carry no request id on the wire. They
// share the pending table's key space with int64 ids; the types never
// collide.
const (
	keyCurrentTime     = "current time"
	keyManagedAccounts = "managed accounts"
	keyNextOrderID     = "next order id"
	keyOpenOrders      = "open orders"
	keyCompletedOrders = "completed orders"
	keyDepthExchanges  = "depth exchanges"
)

// callResult is the settled outcome of one pending call.
type callResult struct {
	msgs []*message.Incoming
	err  error
}

// pendingCall accumulates reply frames for one in-flight request until
// a terminal frame, a server error, or connection loss settles it.
// done is single-slot and written exactly once, guarded by settled.
// msgs is touched only by the dispatcher goroutine.
type pendingCall struct {
	key      any
	terminal func(*message.Incoming) bool
	msgs     []*message.Incoming
	done     chan callResult
	settled  atomic.Bool
	gen      uint64
}

// pendingTable tracks in-flight request/reply calls. Request-scoped
// calls key by their allocated id; connection-scoped calls key by the
// sentinel names above, which also serializes them: a second overlapping
// call on the same sentinel is refused at register time.
type pendingTable struct {
	calls sync.Map // any -> *pendingCall
}

func (t *pendingTable) register(key any, gen uint64, terminal func(*message.Incoming) bool) (*pendingCall, bool) {
	call := &pendingCall{
		key:      key,
		terminal: terminal,
		done:     make(chan callResult, 1),
		gen:      gen,
	}
	if _, loaded := t.calls.LoadOrStore(key, call); loaded {
		return nil, false
	}
	return call, true
}

// deliver hands a reply frame to the call registered under key.
// Reports whether a call claimed the frame.
func (t *pendingTable) deliver(key any, m *message.Incoming) bool {
	v, ok := t.calls.Load(key)
	if !ok {
		return false
	}
	call := v.(*pendingCall)
	call.msgs = append(call.msgs, m)
	if call.terminal(m) {
		t.settle(call, nil)
	}
	return true
}

// fail settles the call under key with err. Reports whether a call was
// there to fail.
func (t *pendingTable) fail(key any, err error) bool {
	v, ok := t.calls.Load(key)
	if !ok {
		return false
	}
	t.settle(v.(*pendingCall), err)
	return true
}

// failAll settles every live call with err. Called exactly once per
// connection, when the dispatcher exits.
func (t *pendingTable) failAll(err error) {
	t.calls.Range(func(_, v any) bool {
		t.settle(v.(*pendingCall), err)
		return true
	})
}

// abandon withdraws a call that will never be delivered: its send
// failed, or its caller gave up. Late frames for the key then fall
// through to the sink.
func (t *pendingTable) abandon(call *pendingCall) bool {
	if !call.settled.CompareAndSwap(false, true) {
		return false
	}
	t.calls.Delete(call.key)
	return true
}

func (t *pendingTable) settle(call *pendingCall, err error) {
	if !call.settled.CompareAndSwap(false, true) {
		return
	}
	t.calls.Delete(call.key)
	if err != nil {
		call.done <- callResult{err: err}
		return
	}
	call.done <- callResult{msgs: call.msgs}
}

// await blocks until the call settles or ctx ends. On ctx expiry the
// call is withdrawn, unless settlement won the race, in which case the
// settled result is returned.
func (c *Client) await(ctx context.Context, call *pendingCall) ([]*message.Incoming, error) {
	select {
	case res := <-call.done:
		return res.msgs, res.err
	case <-ctx.Done():
		if c.pending.abandon(call) {
			c.logger.Debug("call abandoned",
				"key", call.key,
				"generation", call.gen,
				"reason", ctx.Err())
			return nil, ctx.Err()
		}
		res := <-call.done
		return res.msgs, res.err
	}
}
