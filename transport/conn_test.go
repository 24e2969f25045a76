package transport

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"ibtws/gateway"
	"ibtws/message"
)

// 起一个网关模拟器当测试对端，返回指向它的配置。
func startGateway(t *testing.T, opts ...gateway.Option) (*gateway.Gateway, Config) {
	t.Helper()
	gw := gateway.New(opts...)
	if err := gw.Listen("tcp", "127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	go gw.Serve()
	t.Cleanup(func() { gw.Shutdown(time.Second) })

	port := gw.Addr().(*net.TCPAddr).Port
	return gw, Config{Host: "127.0.0.1", Port: port, ClientID: 1}
}

// recvTag 从 Recv 里读到指定 tag 为止，中途的其他消息跳过。
func recvTag(t *testing.T, c *Conn, tag message.In) *message.Incoming {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case inc, ok := <-c.Recv():
			if !ok {
				t.Fatalf("recv closed while waiting for tag %v", tag)
			}
			if inc.Tag == tag {
				return inc
			}
		case <-deadline:
			t.Fatalf("timeout waiting for tag %v", tag)
		}
	}
}

func TestDialHandshake(t *testing.T) {
	_, cfg := startGateway(t, gateway.WithAccounts("DU1234567"))

	conn, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if conn.State() != StateConnected {
		t.Fatalf("expect connected, got %v", conn.State())
	}
	if conn.ServerVersion() != 157 {
		t.Fatalf("expect server version 157, got %d", conn.ServerVersion())
	}

	// 握手完成后最先到的两帧固定是 NextValidId 和 ManagedAccts。
	first := <-conn.Recv()
	if first.Tag != message.InNextValidID {
		t.Fatalf("expect NextValidId first, got %v", first.Tag)
	}
	second := <-conn.Recv()
	if second.Tag != message.InManagedAccts {
		t.Fatalf("expect ManagedAccts second, got %v", second.Tag)
	}
	r := second.Reader()
	r.Skip(1)
	if accounts := r.String(); accounts != "DU1234567" {
		t.Fatalf("expect account list, got %q", accounts)
	}
}

func TestSendCurrentTime(t *testing.T) {
	_, cfg := startGateway(t)
	conn, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.Send(context.Background(), message.ReqCurrentTime()); err != nil {
		t.Fatalf("send: %v", err)
	}
	inc := recvTag(t, conn, message.InCurrentTime)
	r := inc.Reader()
	r.Skip(1)
	got := r.UnixTime()
	if d := time.Since(got); d > 5*time.Second || d < -5*time.Second {
		t.Fatalf("expect recent server time, got %v", got)
	}
}

// 多个 goroutine 共用一条连接并发发送，写锁保证帧不被拆散。
func TestSendConcurrent(t *testing.T) {
	_, cfg := startGateway(t)
	conn, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := conn.Send(context.Background(), message.ReqCurrentTime()); err != nil {
				t.Errorf("send: %v", err)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		recvTag(t, conn, message.InCurrentTime)
	}
}

func TestDialVersionRejected(t *testing.T) {
	// 网关只会说 90，客户端最低要 100，握手必须失败。
	_, cfg := startGateway(t, gateway.WithServerVersion(90))

	_, err := Dial(context.Background(), cfg)
	if err == nil {
		t.Fatal("expect handshake failure")
	}
	var hs *HandshakeError
	if !errors.As(err, &hs) {
		t.Fatalf("expect HandshakeError, got %v", err)
	}
	if hs.Stage != StageHello {
		t.Fatalf("expect hello stage, got %q", hs.Stage)
	}
}

func TestConnectionLost(t *testing.T) {
	gw, cfg := startGateway(t)
	conn, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	gw.DropConnections()

	deadline := time.After(2 * time.Second)
	for open := true; open; {
		select {
		case _, ok := <-conn.Recv():
			open = ok
		case <-deadline:
			t.Fatal("recv not closed after connection loss")
		}
	}
	if !errors.Is(conn.Err(), ErrConnectionLost) {
		t.Fatalf("expect ErrConnectionLost, got %v", conn.Err())
	}
	if err := conn.Send(context.Background(), message.ReqCurrentTime()); !errors.Is(err, ErrConnectionLost) {
		t.Fatalf("expect send to fail with ErrConnectionLost, got %v", err)
	}
}

func TestCleanClose(t *testing.T) {
	_, cfg := startGateway(t)
	conn, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for range conn.Recv() {
	}
	// 本地主动关闭不算连接丢失。
	if conn.Err() != nil {
		t.Fatalf("expect nil error after clean close, got %v", conn.Err())
	}
	if conn.State() != StateDisconnected {
		t.Fatalf("expect disconnected, got %v", conn.State())
	}
	conn.Close() // second close is a no-op
}

func TestKeepaliveProbe(t *testing.T) {
	_, cfg := startGateway(t)
	conn, err := Dial(context.Background(), cfg, WithKeepalive(50*time.Millisecond))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// 不主动发任何请求，空闲探测应该自己触发 CurrentTime。
	recvTag(t, conn, message.InCurrentTime)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("IBTWS_HOST", "10.1.2.3")
	t.Setenv("IBTWS_PORT", "4002")
	t.Setenv("IBTWS_CLIENT_ID", "9")

	cfg := ConfigFromEnv()
	if cfg.Host != "10.1.2.3" || cfg.Port != 4002 || cfg.ClientID != 9 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.MinVersion != 100 || cfg.MaxVersion != 157 {
		t.Fatalf("expect default version range, got %d..%d", cfg.MinVersion, cfg.MaxVersion)
	}
}

func TestRedialerBackoff(t *testing.T) {
	// 找一个肯定没人监听的端口。
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	r := &Redialer{
		Config:    Config{Host: "127.0.0.1", Port: port},
		Attempts:  3,
		BaseDelay: 10 * time.Millisecond,
	}
	start := time.Now()
	if _, err := r.Dial(context.Background()); err == nil {
		t.Fatal("expect dial failure")
	}
	// 两次重试间隔 10ms + 20ms。
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expect backoff delays, finished in %v", elapsed)
	}

	_, cfg := startGateway(t)
	r = &Redialer{Config: cfg, Attempts: 2, BaseDelay: 10 * time.Millisecond}
	conn, err := r.Dial(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
}
