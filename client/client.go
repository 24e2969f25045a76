// Package client is the trading client facade: typed operations over
// one gateway session.
//
// A Client owns a transport connection, an outbound middleware chain,
// and a single dispatcher goroutine that routes every inbound frame to
// the caller waiting for it: one-shot calls settle through a pending
// table, streams flow through subscription channels, and frames nobody
// claims surface on a global sink. Request ids and order ids come from
// one shared allocator, so the two never collide in the routing tables.
//
// Gateway endpoints come either from a fixed Config or, in
// multi-gateway deployments, from a registry plus a balancer picked at
// Connect time.
package client

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"ibtws/loadbalance"
	"ibtws/message"
	"ibtws/middleware"
	"ibtws/registry"
	"ibtws/transport"
)

var (
	// ErrNotConnected reports a facade call on a client with no live
	// session. Fail-fast: no queuing of requests for a future connect.
	ErrNotConnected = errors.New("not connected")

	// ErrClosed is the terminal cause handed to pending calls and
	// subscriptions when the client is closed locally.
	ErrClosed = errors.New("client closed")
)

// SinkEvent is a frame no pending call or subscription claimed: a
// connection-scoped server error, an unsolicited update, or a tag this
// client has no typed handling for.
type SinkEvent struct {
	Event message.Event
	Err   error // set when the event is a connection-scoped server error
}

type options struct {
	logger        *slog.Logger
	transportOpts []transport.Option
	middlewares   []middleware.Middleware
	subBuffer     int
	sinkBuffer    int
	paceLimit     float64
	paceBurst     int
	registry      registry.Registry
	balancer      loadbalance.Balancer
	cluster       string
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTransportOptions passes options through to the transport dial.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *options) { o.transportOpts = append(o.transportOpts, opts...) }
}

// WithMiddleware inserts middlewares into the outbound send chain,
// between pacing and logging.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, mws...) }
}

// WithSubscriptionBuffer sets the per-subscription event buffer.
// Default 256; events beyond a full buffer are dropped and counted.
func WithSubscriptionBuffer(n int) Option {
	return func(o *options) { o.subBuffer = n }
}

// WithSinkBuffer sets the global sink buffer. Default 64.
func WithSinkBuffer(n int) Option {
	return func(o *options) { o.sinkBuffer = n }
}

// WithPace sets the outbound rate limit. The gateway disconnects
// sessions above 50 messages per second; the default of 45 with a
// burst of 10 stays under that. perSecond <= 0 disables pacing.
func WithPace(perSecond float64, burst int) Option {
	return func(o *options) {
		o.paceLimit = perSecond
		o.paceBurst = burst
	}
}

// WithDiscovery resolves the gateway address through a registry at
// Connect time instead of the fixed Config address. bal picks among
// the discovered endpoints.
func WithDiscovery(reg registry.Registry, bal loadbalance.Balancer, cluster string) Option {
	return func(o *options) {
		o.registry = reg
		o.balancer = bal
		o.cluster = cluster
	}
}

// Client is one logical trading session. Safe for concurrent use; all
// facade methods may be called from any goroutine.
type Client struct {
	cfg    transport.Config
	opts   options
	logger *slog.Logger

	mu   sync.Mutex // guards conn, send, done across connect/close
	conn *transport.Conn
	send middleware.HandlerFunc
	done chan struct{} // closed when the dispatcher drains and exits

	gen     atomic.Uint64
	ids     allocator
	pending pendingTable
	subs    subTable

	acctMu   sync.RWMutex
	accounts []string

	readyMu   sync.Mutex
	readyCh   chan struct{}
	haveIDs   bool
	haveAccts bool

	sinkCh chan SinkEvent
}

// New builds a client for the gateway at cfg. Call Connect to open the
// session.
func New(cfg transport.Config, opts ...Option) *Client {
	o := options{
		subBuffer:  256,
		sinkBuffer: 64,
		paceLimit:  45,
		paceBurst:  10,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		opts:   o,
		logger: logger,
		sinkCh: make(chan SinkEvent, o.sinkBuffer),
	}
}

// Connect opens the session: resolves the gateway address, dials,
// completes the protocol handshake, and waits until the gateway has
// announced the order id floor and the managed account list. Only then
// is the session usable, so a nil return means requests can be issued
// immediately.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil && c.conn.State() != transport.StateDisconnected {
		c.mu.Unlock()
		return errors.New("already connected")
	}
	prev := c.done
	c.mu.Unlock()

	// A lost connection reports Disconnected before its dispatcher has
	// drained the pending and subscription tables. Wait it out so the
	// old generation cannot fail calls registered against the new one.
	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	cfg := c.cfg
	if c.opts.registry != nil {
		addr, err := c.resolve()
		if err != nil {
			return err
		}
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return errors.Wrapf(err, "discovered address %q", addr)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return errors.Wrapf(err, "discovered address %q", addr)
		}
		cfg.Host, cfg.Port = host, p
	}

	topts := append([]transport.Option{transport.WithLogger(c.logger)}, c.opts.transportOpts...)
	conn, err := transport.Dial(ctx, cfg, topts...)
	if err != nil {
		return err
	}

	gen := c.gen.Add(1)

	c.readyMu.Lock()
	c.readyCh = make(chan struct{})
	c.haveIDs, c.haveAccts = false, false
	ready := c.readyCh
	c.readyMu.Unlock()

	done := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.send = c.buildChain(conn)
	c.done = done
	c.mu.Unlock()

	go c.dispatch(conn, gen, done)

	// The gateway volunteers NextValidId and ManagedAccts right after
	// the handshake; the session is not usable before both arrive.
	select {
	case <-ready:
	case <-done:
		if err := conn.Err(); err != nil {
			return err
		}
		return ErrClosed
	case <-ctx.Done():
		conn.Close()
		<-done
		return ctx.Err()
	}

	c.logger.Info("session ready",
		"generation", gen,
		"server_version", conn.ServerVersion(),
		"accounts", c.Accounts(),
		"next_order_id", c.ids.Peek())
	return nil
}

// resolve picks a gateway endpoint through the configured registry and
// balancer.
func (c *Client) resolve() (string, error) {
	gws, err := c.opts.registry.Discover(c.opts.cluster)
	if err != nil {
		return "", errors.Wrapf(err, "discover cluster %q", c.opts.cluster)
	}
	gw, err := c.opts.balancer.Pick(gws)
	if err != nil {
		return "", err
	}
	c.logger.Debug("gateway picked",
		"cluster", c.opts.cluster,
		"addr", gw.Addr,
		"label", gw.Label,
		"strategy", c.opts.balancer.Name())
	return gw.Addr, nil
}

// buildChain composes the outbound send pipeline around the raw
// transport send: pacing outermost, then caller middlewares, logging
// last so it records what actually reached the wire.
func (c *Client) buildChain(conn *transport.Conn) middleware.HandlerFunc {
	base := func(ctx context.Context, msg *message.Outgoing) error {
		return conn.Send(ctx, msg)
	}
	var mws []middleware.Middleware
	if c.opts.paceLimit > 0 {
		mws = append(mws, middleware.Pace(c.opts.paceLimit, c.opts.paceBurst))
	}
	mws = append(mws, c.opts.middlewares...)
	mws = append(mws, middleware.Logging(c.logger))
	return middleware.Chain(mws...)(base)
}

// handler returns the composed send func for the live session, or
// ErrNotConnected.
func (c *Client) handler() (middleware.HandlerFunc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.State() != transport.StateConnected {
		return nil, ErrNotConnected
	}
	return c.send, nil
}

// Close ends the session. Every pending call settles with ErrClosed
// and every subscription channel closes before Close returns. Safe to
// call twice and before Connect.
func (c *Client) Close() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-done
	return err
}

// Sink returns the global event stream: connection-scoped server
// errors and frames no caller claimed. Consuming it is optional; a
// full sink drops events.
func (c *Client) Sink() <-chan SinkEvent {
	return c.sinkCh
}

// Accounts returns the managed account list announced at connect.
func (c *Client) Accounts() []string {
	c.acctMu.RLock()
	defer c.acctMu.RUnlock()
	out := make([]string, len(c.accounts))
	copy(out, c.accounts)
	return out
}

// ServerVersion reports the gateway's protocol version, 0 before the
// first connect.
func (c *Client) ServerVersion() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return 0
	}
	return c.conn.ServerVersion()
}

// ServerTime reports the gateway clock string from the handshake.
func (c *Client) ServerTime() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ""
	}
	return c.conn.ServerTime()
}

// setAccounts records the managed account list.
func (c *Client) setAccounts(accounts []string) {
	c.acctMu.Lock()
	c.accounts = accounts
	c.acctMu.Unlock()
}

// markReady records one of the two session-ready preconditions and
// closes the ready gate when both have been seen.
func (c *Client) markReady(ids, accts bool) {
	c.readyMu.Lock()
	defer c.readyMu.Unlock()
	c.haveIDs = c.haveIDs || ids
	c.haveAccts = c.haveAccts || accts
	if c.haveIDs && c.haveAccts {
		select {
		case <-c.readyCh:
		default:
			close(c.readyCh)
		}
	}
}

// sink offers an event to the global sink without blocking the
// dispatcher.
func (c *Client) sink(ev message.Event, err error) {
	select {
	case c.sinkCh <- SinkEvent{Event: ev, Err: err}:
	default:
		c.logger.Debug("sink full, event dropped", "tag", ev.Tag())
	}
}
