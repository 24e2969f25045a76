// Package registry's etcd implementation stores the endpoint set in etcd v3:
//
//	Key:   /ibgw/{cluster}/{addr}
//	Value: JSON-encoded Gateway
//
// Registration uses TTL-based leases: if a gateway process dies, its lease
// expires and the entry disappears on its own, so clients never dial ghost
// endpoints.
package registry

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const keyPrefix = "/ibgw/"

// EtcdRegistry implements Registry on an etcd v3 cluster.
type EtcdRegistry struct {
	client *clientv3.Client // thread-safe, shared across goroutines
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, errors.Wrap(err, "etcd connect")
	}
	return &EtcdRegistry{client: c}, nil
}

// Register announces a gateway under the cluster with a TTL lease.
//
// Flow:
//  1. Grant a lease with the given TTL
//  2. Put the key-value pair attached to the lease
//  3. Start KeepAlive so the lease renews while the process lives
//
// The lease id stays a local variable, not a struct field, so several
// gateways can share one EtcdRegistry without racing on it.
func (r *EtcdRegistry) Register(cluster string, gw Gateway, ttl int64) error {
	ctx := context.Background()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return errors.Wrap(err, "etcd lease grant")
	}

	val, err := json.Marshal(gw)
	if err != nil {
		return errors.Wrap(err, "marshal gateway")
	}

	_, err = r.client.Put(ctx, keyPrefix+cluster+"/"+gw.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return errors.Wrap(err, "etcd put")
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return errors.Wrap(err, "etcd keepalive")
	}

	// Drain keepalive acks so the channel never fills up
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes a gateway endpoint. Called during graceful shutdown
// before the listener closes.
func (r *EtcdRegistry) Deregister(cluster string, addr string) error {
	_, err := r.client.Delete(context.Background(), keyPrefix+cluster+"/"+addr)
	return errors.Wrap(err, "etcd delete")
}

// Watch monitors a cluster prefix and emits the updated endpoint list on
// every change (registration, deregistration, lease expiry). Uses etcd's
// server-push watch rather than polling.
func (r *EtcdRegistry) Watch(cluster string) <-chan []Gateway {
	ch := make(chan []Gateway, 1)

	go func() {
		watchChan := r.client.Watch(context.Background(), keyPrefix+cluster+"/", clientv3.WithPrefix())
		for range watchChan {
			// Re-fetch the full set on any change; simpler than folding
			// individual watch events into a local copy
			gws, err := r.Discover(cluster)
			if err != nil {
				continue
			}
			ch <- gws
		}
	}()

	return ch
}

// Discover returns the currently registered endpoints of a cluster.
func (r *EtcdRegistry) Discover(cluster string) ([]Gateway, error) {
	resp, err := r.client.Get(context.Background(), keyPrefix+cluster+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(err, "etcd get")
	}

	gws := make([]Gateway, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var gw Gateway
		if err := json.Unmarshal(kv.Value, &gw); err != nil {
			continue // skip malformed entries
		}
		gws = append(gws, gw)
	}

	return gws, nil
}

// Close releases the etcd client connection.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
