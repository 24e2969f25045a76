package loadbalance

import (
	"sync/atomic"

	"ibtws/registry"
)

// RoundRobinBalancer spreads connection attempts evenly across gateways.
// Uses an atomic counter for lock-free, goroutine-safe operation.
type RoundRobinBalancer struct {
	counter int64 // incremented on each Pick()
}

// Pick selects the next gateway in round-robin order.
func (b *RoundRobinBalancer) Pick(gws []registry.Gateway) (*registry.Gateway, error) {
	if len(gws) == 0 {
		return nil, ErrNoGateways
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(gws))
	return &gws[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
