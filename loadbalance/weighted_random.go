package loadbalance

import (
	"math/rand"

	"github.com/pkg/errors"

	"ibtws/registry"
)

// WeightedRandomBalancer picks gateways in proportion to their announced
// weight, for deployments where some gateways carry more session capacity.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(gws []registry.Gateway) (*registry.Gateway, error) {
	if len(gws) == 0 {
		return nil, ErrNoGateways
	}

	// 计算总权重，没配权重时退化为均匀随机
	totalWeight := 0
	for i := range gws {
		totalWeight += gws[i].Weight
	}
	if totalWeight <= 0 {
		return &gws[rand.Intn(len(gws))], nil
	}

	// 生成一个随机数，范围是0到总权重
	r := rand.Intn(totalWeight)
	for i := range gws {
		r -= gws[i].Weight
		if r < 0 {
			return &gws[i], nil
		}
	}

	return nil, errors.New("unexpected fallthrough in weighted selection")
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
