package client

import "sync/atomic"

// allocator hands out correlation ids for requests and order ids for
// placements. One counter serves both: the gateway echoes whichever id
// was sent, and a shared id space means an order id can never collide
// with a request id in the routing tables.
type allocator struct {
	next atomic.Int64
}

// Next returns a fresh id, never reused within a client.
func (a *allocator) Next() int64 {
	return a.next.Add(1) - 1
}

// Peek reports the id Next would return, without claiming it.
func (a *allocator) Peek() int64 {
	return a.next.Load()
}

// Seed raises the counter to at least v. Seeding never rewinds: a
// NextValidId arriving after local allocations (reconnect, explicit
// re-request) must not cause an id to be issued twice.
func (a *allocator) Seed(v int64) {
	for {
		cur := a.next.Load()
		if cur >= v {
			return
		}
		if a.next.CompareAndSwap(cur, v) {
			return
		}
	}
}
