package registry

import (
	"context"
	"os"
	"testing"
	"time"
)

// 连不上 etcd 时跳过，没起 etcd 的环境里其余测试照常跑
func needsEtcd(t *testing.T) *EtcdRegistry {
	endpoints := []string{"localhost:2379"}
	if v := os.Getenv("IBTWS_ETCD"); v != "" {
		endpoints = []string{v}
	}
	reg, err := NewEtcdRegistry(endpoints)
	if err != nil {
		t.Skipf("etcd unavailable: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := reg.client.Get(ctx, keyPrefix+"ping"); err != nil {
		reg.Close()
		t.Skipf("etcd unavailable: %v", err)
	}
	return reg
}

func TestRegisterAndDiscover(t *testing.T) {
	reg := needsEtcd(t)
	defer reg.Close()

	gw1 := Gateway{Addr: "127.0.0.1:7496", Weight: 10, Label: "live"}
	gw2 := Gateway{Addr: "127.0.0.1:7497", Weight: 5, Label: "paper"}

	if err := reg.Register("desk-test", gw1, 10); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register("desk-test", gw2, 10); err != nil {
		t.Fatal(err)
	}

	gws, err := reg.Discover("desk-test")
	if err != nil {
		t.Fatal(err)
	}
	if len(gws) != 2 {
		t.Fatalf("expect 2 gateways, got %d", len(gws))
	}

	// Deregister one
	if err := reg.Deregister("desk-test", gw1.Addr); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	gws, err = reg.Discover("desk-test")
	if err != nil {
		t.Fatal(err)
	}
	if len(gws) != 1 {
		t.Fatalf("expect 1 gateway after deregister, got %d", len(gws))
	}
	if gws[0].Addr != gw2.Addr {
		t.Fatalf("expect %s, got %s", gw2.Addr, gws[0].Addr)
	}

	// Cleanup
	reg.Deregister("desk-test", gw2.Addr)
}
