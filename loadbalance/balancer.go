// Package loadbalance provides selection strategies over discovered gateway
// endpoints.
//
// Three strategies are implemented:
//   - RoundRobin:      interchangeable gateways, equal session capacity
//   - WeightedRandom:  heterogeneous gateways (different session limits)
//   - ConsistentHash:  account affinity; one account's connections stay on
//     one gateway, keeping its order state in a single place
package loadbalance

import (
	"github.com/pkg/errors"

	"ibtws/registry"
)

// ErrNoGateways reports an empty endpoint set at pick time.
var ErrNoGateways = errors.New("no gateways available")

// Balancer picks the gateway for the next connection attempt.
type Balancer interface {
	// Pick selects one gateway from the discovered set.
	// Called per connection attempt, so it must be goroutine-safe.
	Pick(gws []registry.Gateway) (*registry.Gateway, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
