// Package registry provides gateway endpoint discovery for multi-gateway
// deployments.
//
// A trading desk typically runs several gateway processes (paper, live,
// per-region). Gateways announce themselves under a cluster name; clients
// discover the current endpoint set instead of being configured with one
// fixed address.
package registry

// Gateway is one announced gateway endpoint.
type Gateway struct {
	Addr   string // host:port the gateway listens on
	Weight int    // relative capacity for load balancing
	Label  string // free-form tag, e.g. "paper" or "live"
}

// Registry is the discovery surface: gateways register themselves, clients
// discover and watch the endpoint set.
type Registry interface {
	Register(cluster string, gw Gateway, ttl int64) error
	Deregister(cluster string, addr string) error
	Discover(cluster string) ([]Gateway, error)
	Watch(cluster string) <-chan []Gateway
}
