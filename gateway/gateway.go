// Package gateway implements a scripted in-process trading gateway speaking
// the full wire protocol. Tests and local development run against it instead
// of a live trading session.
//
// Connection lifecycle:
//
//	Accept conn → Session.run (handshake: "API\x00" + version range →
//	  server hello → StartApi → NextValidId + ManagedAccts)
//	  → read loop: one frame at a time → Script handler → reply frames
//
// Frames on one session are handled strictly in order, matching the real
// gateway's per-session sequencing; replies to a single request are never
// interleaved with each other because the handler runs to completion before
// the next frame is read.
package gateway

import (
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"ibtws/protocol"
	"ibtws/registry"
)

// Gateway is the scripted simulator: an accept loop, per-connection
// sessions, and a script table mapping request tags to handlers.
type Gateway struct {
	script        *Script
	logger        *slog.Logger
	accounts      []string
	serverVersion int

	nextOrderID atomic.Int64

	listener net.Listener
	wg       sync.WaitGroup // tracks session loops for graceful shutdown
	shutdown atomic.Bool

	mu       sync.Mutex
	sessions map[*Session]struct{}

	reg           registry.Registry
	cluster       string
	advertiseAddr string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithAccounts sets the account list announced after StartApi.
func WithAccounts(accounts ...string) Option {
	return func(g *Gateway) { g.accounts = accounts }
}

// WithServerVersion sets the protocol version the gateway negotiates down
// from.
func WithServerVersion(v int) Option {
	return func(g *Gateway) { g.serverVersion = v }
}

// WithNextOrderID seeds the order id handed out in the handshake.
func WithNextOrderID(id int64) Option {
	return func(g *Gateway) { g.nextOrderID.Store(id) }
}

// WithScript replaces the default script table.
func WithScript(s *Script) Option {
	return func(g *Gateway) { g.script = s }
}

// WithRegistry makes the gateway announce itself in an endpoint registry
// under the cluster name. advertiseAddr overrides the listen address in
// the announcement; leave it empty to advertise the bound address.
func WithRegistry(reg registry.Registry, cluster, advertiseAddr string) Option {
	return func(g *Gateway) {
		g.reg = reg
		g.cluster = cluster
		g.advertiseAddr = advertiseAddr
	}
}

// New creates a gateway with the default script and one paper account.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		logger:        slog.Default(),
		accounts:      []string{"DU1234567"},
		serverVersion: protocol.MaxClientVersion,
		sessions:      make(map[*Session]struct{}),
	}
	g.nextOrderID.Store(1)
	for _, opt := range opts {
		opt(g)
	}
	if g.script == nil {
		g.script = DefaultScript()
	}
	return g
}

// Script returns the script table for per-test handler overrides.
func (g *Gateway) Script() *Script {
	return g.script
}

// Listen binds the listener and, when configured, registers the endpoint.
// Use address ":0" to bind an ephemeral port and read it back with Addr.
func (g *Gateway) Listen(network, address string) error {
	ln, err := net.Listen(network, address)
	if err != nil {
		return errors.Wrap(err, "gateway listen")
	}
	g.listener = ln

	if g.reg != nil {
		addr := g.advertiseAddr
		if addr == "" {
			addr = ln.Addr().String()
		}
		g.advertiseAddr = addr
		if err := g.reg.Register(g.cluster, registry.Gateway{Addr: addr, Weight: 1}, 10); err != nil {
			ln.Close()
			return errors.Wrap(err, "gateway register")
		}
	}
	return nil
}

// Addr returns the bound listen address.
func (g *Gateway) Addr() net.Addr {
	return g.listener.Addr()
}

// Serve runs the accept loop until Shutdown. One goroutine per session.
func (g *Gateway) Serve() error {
	for {
		conn, err := g.listener.Accept()
		if err != nil {
			// Shutdown closes the listener; report that as a clean exit
			if g.shutdown.Load() {
				return nil
			}
			return errors.Wrap(err, "gateway accept")
		}
		s := newSession(g, conn)
		g.addSession(s)
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			s.run()
		}()
	}
}

// Shutdown deregisters the endpoint, stops accepting, closes every live
// session and waits for their loops to drain, bounded by timeout.
func (g *Gateway) Shutdown(timeout time.Duration) error {
	if g.reg != nil {
		g.reg.Deregister(g.cluster, g.advertiseAddr)
	}

	// Flag before closing the listener so Serve reads the Accept error as
	// an intentional stop
	g.shutdown.Store(true)
	if g.listener != nil {
		g.listener.Close()
	}
	g.DropConnections()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("timeout waiting for sessions to finish")
	}
}

// DropConnections closes every live session's socket without shutting the
// gateway down. Connection-loss tests use it to simulate a dying gateway.
func (g *Gateway) DropConnections() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for s := range g.sessions {
		s.conn.Close()
	}
}

// NoteOrderID advances the next-order-id watermark past a just-used id.
func (g *Gateway) NoteOrderID(id int64) {
	for {
		cur := g.nextOrderID.Load()
		if id < cur {
			return
		}
		if g.nextOrderID.CompareAndSwap(cur, id+1) {
			return
		}
	}
}

func (g *Gateway) addSession(s *Session) {
	g.mu.Lock()
	g.sessions[s] = struct{}{}
	g.mu.Unlock()
}

func (g *Gateway) removeSession(s *Session) {
	g.mu.Lock()
	delete(g.sessions, s)
	g.mu.Unlock()
}
