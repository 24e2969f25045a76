package loadbalance

import (
	"fmt"
	"testing"

	"ibtws/registry"
)

var testGateways = []registry.Gateway{
	{Addr: "10.0.0.1:4001", Weight: 10, Label: "live"},
	{Addr: "10.0.0.2:4001", Weight: 5, Label: "live"},
	{Addr: "10.0.0.3:4001", Weight: 10, Label: "live"},
}

func TestRoundRobin(t *testing.T) {
	b := &RoundRobinBalancer{}

	// Pick 3 times, should cycle through all gateways
	results := make([]string, 3)
	for i := 0; i < 3; i++ {
		gw, err := b.Pick(testGateways)
		if err != nil {
			t.Fatal(err)
		}
		results[i] = gw.Addr
	}

	// Pick again, should wrap around to the first
	gw, _ := b.Pick(testGateways)
	if gw.Addr != results[0] {
		t.Fatalf("expect wrap around to %s, got %s", results[0], gw.Addr)
	}
}

func TestRoundRobinEmpty(t *testing.T) {
	b := &RoundRobinBalancer{}
	_, err := b.Pick(nil)
	if err == nil {
		t.Fatal("expect error for empty gateway set")
	}
}

func TestWeightedRandom(t *testing.T) {
	b := &WeightedRandomBalancer{}

	counts := map[string]int{}
	n := 10000
	for i := 0; i < n; i++ {
		gw, err := b.Pick(testGateways)
		if err != nil {
			t.Fatal(err)
		}
		counts[gw.Addr]++
	}

	// Weight ratio is 10:5:10, so .1 should land ~2x as often as .2
	ratio := float64(counts["10.0.0.1:4001"]) / float64(counts["10.0.0.2:4001"])
	if ratio < 1.5 || ratio > 2.5 {
		t.Fatalf("weight ratio .1/.2 = %.2f, expect ~2.0", ratio)
	}
}

func TestWeightedRandomZeroWeights(t *testing.T) {
	// 没配权重时应该均匀随机而不是 panic
	b := &WeightedRandomBalancer{}
	gws := []registry.Gateway{{Addr: "a:1"}, {Addr: "b:1"}}

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		gw, err := b.Pick(gws)
		if err != nil {
			t.Fatal(err)
		}
		seen[gw.Addr] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expect both gateways picked, got %v", seen)
	}
}

func TestConsistentHash(t *testing.T) {
	b := NewConsistentHashBalancer()
	for i := range testGateways {
		b.Add(&testGateways[i])
	}

	// Same account should always map to the same gateway
	gw1, _ := b.Pick("DU1234567")
	gw2, _ := b.Pick("DU1234567")
	if gw1.Addr != gw2.Addr {
		t.Fatalf("same account mapped to different gateways: %s vs %s", gw1.Addr, gw2.Addr)
	}

	// Different accounts should (likely) spread across gateways
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		gw, _ := b.Pick(fmt.Sprintf("DU%07d", i))
		seen[gw.Addr] = true
	}

	// With 100 accounts on 3 gateways we should hit at least 2
	if len(seen) < 2 {
		t.Fatalf("expect at least 2 gateways used, got %d", len(seen))
	}
}

func TestConsistentHashEmpty(t *testing.T) {
	b := NewConsistentHashBalancer()
	if _, err := b.Pick("DU1234567"); err == nil {
		t.Fatal("expect error for empty ring")
	}
}
