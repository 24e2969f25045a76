package test

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"

	"ibtws/client"
	"ibtws/gateway"
	"ibtws/loadbalance"
	"ibtws/message"
	"ibtws/registry"
	"ibtws/transport"
)

// ---- 公共环境 ----

// startGateway 起一个网关模拟器，测试结束时关掉。
func startGateway(tb testing.TB, opts ...gateway.Option) *gateway.Gateway {
	tb.Helper()
	gw := gateway.New(append([]gateway.Option{gateway.WithAccounts("DU222222")}, opts...)...)
	if err := gw.Listen("tcp", "127.0.0.1:0"); err != nil {
		tb.Fatalf("listen: %v", err)
	}
	go gw.Serve()
	tb.Cleanup(func() { gw.Shutdown(time.Second) })
	return gw
}

func gwConfig(gw *gateway.Gateway, clientID int64) transport.Config {
	return transport.Config{
		Host:     "127.0.0.1",
		Port:     gw.Addr().(*net.TCPAddr).Port,
		ClientID: clientID,
	}
}

// waitOne 等订阅里出一个事件。
func waitOne(t *testing.T, sub *client.Subscription) message.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatalf("subscription closed early, err %v", sub.Err())
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for an event")
		return nil
	}
}

// waitClosed 等订阅通道被引擎关掉。
func waitClosed(t *testing.T, sub *client.Subscription) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for subscription to close")
		}
	}
}

// waitStatus 等指定状态的订单回报。
func waitStatus(t *testing.T, tr *client.OrderTracker, want string) message.OrderStatus {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-tr.Events():
			if !ok {
				t.Fatalf("tracker closed waiting for %s, err %v", want, tr.Err())
			}
			if st, yes := ev.(message.OrderStatus); yes && st.Status == want {
				return st
			}
		case <-deadline:
			t.Fatalf("timeout waiting for order status %s", want)
		}
	}
}

// TestConnectAndRequest 完整端到端链路
// 链路: Client → transport 握手 → StartApi → NextValidId/ManagedAccts → 请求 → 网关脚本回帧 → dispatcher 路由
func TestConnectAndRequest(t *testing.T) {
	gw := startGateway(t)
	cli := client.New(gwConfig(gw, 11))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cli.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cli.Close()

	if v := cli.ServerVersion(); v != 157 {
		t.Fatalf("server version: expect 157, got %d", v)
	}
	if accts := cli.Accounts(); len(accts) != 1 || accts[0] != "DU222222" {
		t.Fatalf("accounts: expect [DU222222], got %v", accts)
	}

	// 1. 无 request id 的一问一答
	now, err := cli.CurrentTime(ctx)
	if err != nil {
		t.Fatalf("current time: %v", err)
	}
	if now.IsZero() {
		t.Fatal("current time: got zero time")
	}

	// 2. 带 request id 的一问一答，一帧多根K线
	bars, err := cli.HistoricalBars(ctx, message.Stock("AAPL"), "", "1 min", message.SpanDays(1), true, "TRADES")
	if err != nil {
		t.Fatalf("historical bars: %v", err)
	}
	if len(bars.Bars) != 2 {
		t.Fatalf("bars: expect 2, got %d", len(bars.Bars))
	}
	if bars.Bars[1].Close != 265.8 {
		t.Fatalf("last close: expect 265.8, got %v", bars.Bars[1].Close)
	}

	// 3. 订阅流按到达顺序出事件
	sub, err := cli.MarketData(ctx, message.Stock("AAPL"), nil, false)
	if err != nil {
		t.Fatalf("market data: %v", err)
	}
	if _, ok := waitOne(t, sub).(message.TickReqParams); !ok {
		t.Fatal("expect TickReqParams as the first market data event")
	}
	if err := sub.Cancel(ctx); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	t.Log("connect and request integration passed")
}

// TestOrderLifecycle 下单 → 状态回报 → 撤单回报，订单号连续分配
func TestOrderLifecycle(t *testing.T) {
	gw := startGateway(t, gateway.WithNextOrderID(500))
	cli := client.New(gwConfig(gw, 12))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cli.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cli.Close()

	tracker, err := cli.PlaceOrder(ctx, message.Stock("AAPL"), message.LimitOrder(message.Buy, 100, 265.5))
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if tracker.OrderID() != 500 {
		t.Fatalf("order id: expect 500, got %d", tracker.OrderID())
	}

	waitStatus(t, tracker, "Submitted")
	filled := waitStatus(t, tracker, "Filled")
	if filled.Filled != 100 || filled.Remaining != 0 {
		t.Fatalf("fill: expect 100/0, got %v/%v", filled.Filled, filled.Remaining)
	}
	if filled.AverageFillPrice != 265.5 {
		t.Fatalf("avg fill price: expect 265.5, got %v", filled.AverageFillPrice)
	}

	if err := cli.CancelOrder(ctx, tracker.OrderID()); err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	waitStatus(t, tracker, "Cancelled")

	// 同一个分配器接着编号
	tracker2, err := cli.PlaceOrder(ctx, message.Stock("AAPL"), message.LimitOrder(message.Sell, 50, 270))
	if err != nil {
		t.Fatalf("second place order: %v", err)
	}
	if tracker2.OrderID() != 501 {
		t.Fatalf("second order id: expect 501, got %d", tracker2.OrderID())
	}
	waitStatus(t, tracker2, "Filled")

	t.Log("order lifecycle integration passed")
}

// TestReconnectAfterLoss 掉线重连：旧一代全部收尾，新一代照常服务
func TestReconnectAfterLoss(t *testing.T) {
	gw := startGateway(t)
	cli := client.New(gwConfig(gw, 13))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := cli.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cli.Close()

	sub, err := cli.MarketData(ctx, message.Stock("AAPL"), nil, false)
	if err != nil {
		t.Fatalf("market data: %v", err)
	}
	waitOne(t, sub) // 确认流已经活了

	gw.DropConnections()

	// 旧订阅被关掉，原因是连接丢失
	waitClosed(t, sub)
	if !errors.Is(sub.Err(), transport.ErrConnectionLost) {
		t.Fatalf("old sub err: expect ErrConnectionLost, got %v", sub.Err())
	}

	// 同一个 Client 再连
	if err := cli.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if _, err := cli.CurrentTime(ctx); err != nil {
		t.Fatalf("current time after reconnect: %v", err)
	}

	sub2, err := cli.MarketData(ctx, message.Stock("AAPL"), nil, false)
	if err != nil {
		t.Fatalf("market data after reconnect: %v", err)
	}
	waitOne(t, sub2)

	// 旧句柄保持关闭，不会被新一代复活
	if _, ok := <-sub.Events(); ok {
		t.Fatal("old generation subscription got an event after reconnect")
	}

	t.Log("reconnect integration passed")
}

// ---- etcd 相关 ----

// needsEtcd 连不上 etcd 就跳过，环境里没起 etcd 时其余测试照常跑。
func needsEtcd(t *testing.T) *registry.EtcdRegistry {
	t.Helper()
	endpoints := []string{"localhost:2379"}
	if v := os.Getenv("IBTWS_ETCD"); v != "" {
		endpoints = []string{v}
	}
	probe, err := clientv3.New(clientv3.Config{Endpoints: endpoints, DialTimeout: time.Second})
	if err != nil {
		t.Skipf("etcd unavailable: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = probe.Get(ctx, "/ibgw/ping")
	probe.Close()
	if err != nil {
		t.Skipf("etcd unavailable: %v", err)
	}
	reg, err := registry.NewEtcdRegistry(endpoints)
	if err != nil {
		t.Skipf("etcd unavailable: %v", err)
	}
	return reg
}

// TestDiscoveryWithEtcd 多网关 + etcd 服务发现 + 轮询
// 链路: Client → Registry(etcd) → RoundRobin → transport → 网关
func TestDiscoveryWithEtcd(t *testing.T) {
	reg := needsEtcd(t)
	defer reg.Close()

	gw1 := startGateway(t)
	gw2 := startGateway(t)
	cluster := "it-desk"

	if err := reg.Register(cluster, registry.Gateway{Addr: gw1.Addr().String(), Weight: 10, Label: "paper"}, 10); err != nil {
		t.Fatalf("register gw1: %v", err)
	}
	if err := reg.Register(cluster, registry.Gateway{Addr: gw2.Addr().String(), Weight: 10, Label: "paper"}, 10); err != nil {
		t.Fatalf("register gw2: %v", err)
	}
	t.Cleanup(func() {
		reg.Deregister(cluster, gw1.Addr().String())
		reg.Deregister(cluster, gw2.Addr().String())
	})

	cli := client.New(transport.Config{ClientID: 21},
		client.WithDiscovery(reg, &loadbalance.RoundRobinBalancer{}, cluster))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 连两轮，轮询会落到两台网关上，都要能服务
	for round := 1; round <= 2; round++ {
		if err := cli.Connect(ctx); err != nil {
			t.Fatalf("round %d connect: %v", round, err)
		}
		if _, err := cli.CurrentTime(ctx); err != nil {
			t.Fatalf("round %d current time: %v", round, err)
		}
		if err := cli.Close(); err != nil {
			t.Fatalf("round %d close: %v", round, err)
		}
	}

	t.Log("etcd discovery integration passed")
}
