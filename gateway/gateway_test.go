package gateway

import (
	"net"
	"strconv"
	"testing"
	"time"

	"ibtws/codec"
	"ibtws/message"
	"ibtws/protocol"
)

// start 起一个监听随机端口的网关，测试结束时关掉。
func start(t *testing.T, opts ...Option) *Gateway {
	t.Helper()
	gw := New(opts...)
	if err := gw.Listen("tcp", "127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	go gw.Serve()
	t.Cleanup(func() { gw.Shutdown(time.Second) })
	return gw
}

// handshake 走完整个连接流程：API 前缀、版本协商、StartApi，
// 然后消费掉 NextValidId 和 ManagedAccts 两帧。
func handshake(t *testing.T, gw *Gateway, clientID int64) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", gw.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.Write([]byte(protocol.APIPrefix)); err != nil {
		t.Fatalf("write preamble: %v", err)
	}
	announce := protocol.VersionRange(protocol.MinClientVersion, protocol.MaxClientVersion)
	if err := protocol.Encode(conn, []byte(announce)); err != nil {
		t.Fatalf("write version range: %v", err)
	}

	hello := readFields(t, conn)
	if len(hello) < 2 {
		t.Fatalf("Expect hello with version and time, get %v", hello)
	}
	version, err := strconv.Atoi(hello[0])
	if err != nil || version < protocol.MinClientVersion {
		t.Fatalf("Expect negotiated version >= %d, get %q", protocol.MinClientVersion, hello[0])
	}

	send(t, conn, message.StartAPI(clientID))

	nextID := readFields(t, conn)
	if nextID[0] != "9" {
		t.Fatalf("Expect NextValidId frame, get tag %v", nextID[0])
	}
	accts := readFields(t, conn)
	if accts[0] != "15" {
		t.Fatalf("Expect ManagedAccts frame, get tag %v", accts[0])
	}
	return conn
}

func send(t *testing.T, conn net.Conn, m *message.Outgoing) {
	t.Helper()
	if err := protocol.Encode(conn, m.Encode()); err != nil {
		t.Fatalf("send %s: %v", m.Tag(), err)
	}
}

func readFields(t *testing.T, conn net.Conn) []string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	payload, err := protocol.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return codec.Split(payload)
}

func TestGatewayHandshake(t *testing.T) {
	gw := start(t, WithAccounts("DU1234567", "DU7654321"))
	conn := handshake(t, gw, 7)

	send(t, conn, message.ReqCurrentTime())

	fields := readFields(t, conn)
	if fields[0] != "49" {
		t.Fatalf("Expect CurrentTime frame, get tag %v", fields[0])
	}
	unix, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		t.Fatalf("bad unix time %q: %v", fields[2], err)
	}
	if delta := time.Since(time.Unix(unix, 0)); delta > 5*time.Second || delta < -5*time.Second {
		t.Fatalf("Expect recent server time, get %v off by %v", unix, delta)
	}

	send(t, conn, message.ReqManagedAccounts())
	fields = readFields(t, conn)
	if fields[0] != "15" || fields[2] != "DU1234567,DU7654321" {
		t.Fatalf("Expect managed accounts frame, get %v", fields)
	}
}

func TestGatewayScriptOverride(t *testing.T) {
	gw := start(t)
	// 覆盖默认脚本，返回固定时间，方便断言。
	gw.Script().On(message.OutReqCurrentTime, func(s *Session, req *message.Request) {
		s.Send(frame(message.InCurrentTime).Int(1).Int(1700000000))
	})
	conn := handshake(t, gw, 1)

	send(t, conn, message.ReqCurrentTime())
	fields := readFields(t, conn)
	if fields[0] != "49" || fields[2] != "1700000000" {
		t.Fatalf("Expect scripted time 1700000000, get %v", fields)
	}
}

func TestGatewayRejectsNewerClient(t *testing.T) {
	gw := start(t)
	conn, err := net.Dial("tcp", gw.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// 客户端要求的最低版本比网关还高，网关直接断开。
	conn.Write([]byte(protocol.APIPrefix))
	if err := protocol.Encode(conn, []byte(protocol.VersionRange(900, 901))); err != nil {
		t.Fatalf("write version range: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := protocol.ReadFrame(conn); err == nil {
		t.Fatal("Expect connection closed without hello")
	}
}

func TestGatewayOrderLifecycle(t *testing.T) {
	gw := start(t, WithNextOrderID(42))
	conn := handshake(t, gw, 3)

	send(t, conn, message.PlaceOrder(42, message.Stock("AAPL"), message.LimitOrder(message.Buy, 100, 265.5)))

	submitted := readFields(t, conn)
	if submitted[0] != "3" || submitted[2] != "Submitted" {
		t.Fatalf("Expect Submitted status, get %v", submitted)
	}
	if submitted[4] != "100" {
		t.Fatalf("Expect remaining 100, get %v", submitted[4])
	}
	filled := readFields(t, conn)
	if filled[0] != "3" || filled[2] != "Filled" {
		t.Fatalf("Expect Filled status, get %v", filled)
	}
	if filled[3] != "100" || filled[5] != "265.5" {
		t.Fatalf("Expect fill of 100 at 265.5, get %v", filled)
	}

	// 下单之后 next order id 应该越过用过的那个。
	send(t, conn, message.ReqIDs())
	next := readFields(t, conn)
	if next[0] != "9" || next[2] != "43" {
		t.Fatalf("Expect next order id 43, get %v", next)
	}
}

func TestGatewayShutdown(t *testing.T) {
	gw := New()
	if err := gw.Listen("tcp", "127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	go gw.Serve()
	conn := handshake(t, gw, 5)

	if err := gw.Shutdown(2 * time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := protocol.ReadFrame(conn); err == nil {
		t.Fatal("Expect read to fail after shutdown")
	}
	if _, err := net.Dial("tcp", gw.Addr().String()); err == nil {
		t.Fatal("Expect dial to fail after shutdown")
	}
}
