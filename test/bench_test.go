package test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"ibtws/client"
	"ibtws/codec"
	"ibtws/message"
	"ibtws/protocol"
)

// ---- Setup 公共函数 ----

func setupClient(b *testing.B) *client.Client {
	gw := startGateway(b)
	// 不限速，测引擎本身
	cli := client.New(gwConfig(gw, 31), client.WithPace(0, 0))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cli.Connect(ctx); err != nil {
		b.Fatalf("connect: %v", err)
	}
	b.Cleanup(func() { cli.Close() })
	return cli
}

// ---- Benchmark ----

// 场景1: 出站编码（字段拼接 + 帧封装，不走网络）
func BenchmarkFrameEncode(b *testing.B) {
	req := message.ReqMarketData(42, message.Stock("AAPL"), nil, false, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := protocol.Encode(io.Discard, req.Encode()); err != nil {
			b.Fatal(err)
		}
	}
}

// 场景2: 入站拆帧（流式 Decoder）
func BenchmarkFrameDecode(b *testing.B) {
	payload := codec.Join([]string{"1", "6", "42", "4", "265.50", "100", "7"})
	var buf bytes.Buffer
	if err := protocol.Encode(&buf, payload); err != nil {
		b.Fatal(err)
	}
	raw := buf.Bytes()
	d := protocol.NewDecoder()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Write(raw)
		if _, err := d.Next(); err != nil {
			b.Fatal(err)
		}
	}
}

// 场景3: 事件解码（tick 帧 → 类型化事件，dispatcher 的单帧开销）
func BenchmarkDecodeTickPrice(b *testing.B) {
	fields := []string{"1", "6", "42", "4", "265.50", "100", "7"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m, err := message.ParseIncoming(fields)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := message.Decode(m); err != nil {
			b.Fatal(err)
		}
	}
}

// 场景4: 单 goroutine 串行请求，走完整链路（网关模拟器 + TCP）
func BenchmarkSerialRoundTrip(b *testing.B) {
	cli := setupClient(b)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cli.CurrentTime(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// 场景5: 多 goroutine 并发请求（UserInfo 带 request id，在一条连接上多路复用）
func BenchmarkConcurrentRoundTrips(b *testing.B) {
	cli := setupClient(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			if _, err := cli.UserInfo(ctx); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
