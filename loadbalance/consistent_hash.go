package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"ibtws/registry"
)

// ConsistentHashBalancer maps account codes to gateways using a hash ring.
// The same account always lands on the same gateway until the ring changes,
// so every connection touching that account shares one gateway's order-id
// space and cached account state.
//
// Virtual nodes: each gateway is hashed onto the ring at N points. Without
// them a handful of gateways can cluster on the ring and skew the load;
// 100 points per gateway gives a statistically even spread.
type ConsistentHashBalancer struct {
	replicas int                          // virtual nodes per gateway
	ring     []uint32                     // sorted hash values on the ring
	nodes    map[uint32]*registry.Gateway // hash value → gateway
}

// NewConsistentHashBalancer creates a hash ring with 100 virtual nodes per
// gateway.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		ring:     []uint32{},
		nodes:    make(map[uint32]*registry.Gateway),
	}
}

// Add places a gateway onto the hash ring with N virtual nodes, each hashed
// from "{addr}#{i}".
func (b *ConsistentHashBalancer) Add(gw *registry.Gateway) {
	for i := 0; i < b.replicas; i++ {
		key := fmt.Sprintf("%s#%d", gw.Addr, i)
		hash := crc32.ChecksumIEEE([]byte(key))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = gw
	}
	// Ring stays sorted for the binary search in Pick()
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

// Pick finds the gateway responsible for the given account code: hash the
// account, binary-search for the first ring point >= that hash, wrapping to
// the first point past the top of the ring.
//
// Pick takes an account string rather than a gateway list, so this type
// does not satisfy Balancer; account affinity is opted into explicitly.
func (b *ConsistentHashBalancer) Pick(account string) (*registry.Gateway, error) {
	if len(b.ring) == 0 {
		return nil, ErrNoGateways
	}

	hash := crc32.ChecksumIEEE([]byte(account))
	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0
	}

	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
