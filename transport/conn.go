// Package transport owns the socket: dialing, the version-negotiation
// handshake, serialized frame writes, and the single read loop that feeds
// decoded messages to the layer above.
//
// One Conn carries every concurrent request of a client. Writers share the
// socket behind a mutex; the read side has exactly one reader goroutine, so
// frame boundaries are parsed race-free by construction.
//
//	caller-1 ──Send──┐
//	caller-2 ──Send──┼──→ one TCP conn ──→ gateway
//	caller-3 ──Send──┘
//
//	readLoop:  ←── frame → Recv() channel → dispatcher
//
// Correlating replies to callers is not the transport's job: the gateway
// pushes unsolicited frames (ticks, account updates) on the same stream, so
// routing needs the message model and lives in the client's dispatcher.
package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"ibtws/codec"
	"ibtws/message"
	"ibtws/protocol"
)

// ErrConnectionLost reports an unexpected end of the session: a read or
// write failure while the connection was supposed to be up. A locally
// initiated Close never produces it.
var ErrConnectionLost = errors.New("connection lost")

// Handshake stages reported by HandshakeError.
const (
	StagePreamble = "preamble"
	StageHello    = "hello"
	StageStartAPI = "start api"
)

// HandshakeError reports a failed connection handshake and the exchange
// stage it failed in.
type HandshakeError struct {
	Stage string
	Err   error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake %s: %v", e.Stage, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// State is the connection lifecycle phase.
type State int32

const (
	StateDisconnected State = iota
	StateHandshaking
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	}
	return "unknown"
}

// Config carries the connection coordinates. The zero value of the version
// bounds means the full supported range.
type Config struct {
	Host     string
	Port     int
	ClientID int64

	MinVersion int
	MaxVersion int
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 7497
	}
	if c.MinVersion == 0 {
		c.MinVersion = protocol.MinClientVersion
	}
	if c.MaxVersion == 0 {
		c.MaxVersion = protocol.MaxClientVersion
	}
	return c
}

// Addr returns the host:port dial target.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConfigFromEnv builds a Config from IBTWS_HOST, IBTWS_PORT and
// IBTWS_CLIENT_ID, leaving defaults where the variables are unset.
func ConfigFromEnv() Config {
	cfg := Config{}
	if host := os.Getenv("IBTWS_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("IBTWS_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Port = n
		}
	}
	if id := os.Getenv("IBTWS_CLIENT_ID"); id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			cfg.ClientID = n
		}
	}
	return cfg.withDefaults()
}

type options struct {
	logger           *slog.Logger
	handshakeTimeout time.Duration
	keepalive        time.Duration
	recvBuffer       int
}

// Option adjusts connection behavior.
type Option func(*options)

// WithLogger sets the connection's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHandshakeTimeout bounds the whole handshake exchange.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithKeepalive enables the idle probe: when nothing has moved on the link
// for the given interval, a CurrentTime request is sent as a liveness
// check. The reply carries no request id and is dropped by the dispatcher
// as a routing miss; the probe's value is forcing traffic through a
// possibly dead socket. Off by default.
func WithKeepalive(interval time.Duration) Option {
	return func(o *options) { o.keepalive = interval }
}

// WithRecvBuffer sets the Recv channel capacity.
func WithRecvBuffer(n int) Option {
	return func(o *options) { o.recvBuffer = n }
}

// Conn is one live gateway session.
type Conn struct {
	conn   net.Conn
	logger *slog.Logger

	state   atomic.Int32
	writeMu sync.Mutex
	recv    chan *message.Incoming

	serverVersion int
	serverTime    string
	clientID      int64

	// lastActivity is unix nanos of the most recent send or receive,
	// consulted by the keepalive loop.
	lastActivity atomic.Int64

	group     *errgroup.Group
	ctx       context.Context
	cancel    context.CancelFunc
	errOnce   sync.Once
	errMu     sync.Mutex
	err       error
	closeOnce sync.Once
}

// Dial connects to the gateway and runs the handshake: the raw "API\x00"
// preamble, the framed version range, the server's version+time hello, and
// StartApi. On return the read loop is running and the first frames of the
// session (NextValidId, ManagedAccts) are already flowing through Recv.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Conn, error) {
	o := options{
		logger:           slog.Default(),
		handshakeTimeout: 10 * time.Second,
		recvBuffer:       256,
	}
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.withDefaults()

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", cfg.Addr())
	}

	c := &Conn{
		conn:     nc,
		logger:   o.logger.With("remote", nc.RemoteAddr().String()),
		recv:     make(chan *message.Incoming, o.recvBuffer),
		clientID: cfg.ClientID,
	}
	c.state.Store(int32(StateHandshaking))

	if err := c.handshake(cfg, o.handshakeTimeout); err != nil {
		nc.Close()
		c.state.Store(int32(StateDisconnected))
		c.logger.Warn("handshake failed", "err", err)
		return nil, err
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.group = new(errgroup.Group)
	c.touch()
	c.state.Store(int32(StateConnected))

	c.group.Go(c.readLoop)
	if o.keepalive > 0 {
		interval := o.keepalive
		c.group.Go(func() error { return c.keepaliveLoop(interval) })
	}
	go c.supervise()

	c.logger.Info("connected",
		"server_version", c.serverVersion,
		"server_time", c.serverTime,
		"client_id", cfg.ClientID)
	return c, nil
}

func (c *Conn) handshake(cfg Config, timeout time.Duration) error {
	c.conn.SetDeadline(time.Now().Add(timeout))
	defer c.conn.SetDeadline(time.Time{})

	if _, err := c.conn.Write([]byte(protocol.APIPrefix)); err != nil {
		return &HandshakeError{StagePreamble, err}
	}
	announce := protocol.VersionRange(cfg.MinVersion, cfg.MaxVersion)
	if err := protocol.Encode(c.conn, []byte(announce)); err != nil {
		return &HandshakeError{StagePreamble, err}
	}

	payload, err := protocol.ReadFrame(c.conn)
	if err != nil {
		return &HandshakeError{StageHello, err}
	}
	fields := codec.Split(payload)
	if len(fields) < 2 {
		return &HandshakeError{StageHello, errors.Errorf("want version and time, got %d fields", len(fields))}
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return &HandshakeError{StageHello, errors.Wrapf(err, "server version %q", fields[0])}
	}
	if v < cfg.MinVersion {
		return &HandshakeError{StageHello, errors.Errorf("server version %d below supported minimum %d", v, cfg.MinVersion)}
	}
	c.serverVersion = v
	c.serverTime = fields[1]

	if err := protocol.Encode(c.conn, message.StartAPI(cfg.ClientID).Encode()); err != nil {
		return &HandshakeError{StageStartAPI, err}
	}
	return nil
}

// Send writes one message as a single frame. Safe for concurrent use; the
// write mutex keeps frames from interleaving. A context deadline is applied
// to the socket write.
func (c *Conn) Send(ctx context.Context, m *message.Outgoing) error {
	if State(c.state.Load()) != StateConnected {
		return errors.Wrapf(ErrConnectionLost, "send %s", m.Tag())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	if err := protocol.Encode(c.conn, m.Encode()); err != nil {
		return errors.Wrapf(err, "send %s", m.Tag())
	}
	c.touch()
	return nil
}

// Recv returns the inbound message stream. The channel closes when the
// connection ends; Err tells a lost connection from a local Close.
func (c *Conn) Recv() <-chan *message.Incoming {
	return c.recv
}

// Err returns the terminal connection error: an ErrConnectionLost wrap
// after an unexpected loss, nil while live or after a clean Close.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// State returns the current lifecycle phase.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// ServerVersion returns the version negotiated in the handshake.
func (c *Conn) ServerVersion() int { return c.serverVersion }

// ServerTime returns the connection time string from the handshake hello.
func (c *Conn) ServerTime() string { return c.serverTime }

// ClientID returns the id this session announced in StartApi.
func (c *Conn) ClientID() int64 { return c.clientID }

// RemoteAddr returns the gateway's address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Close tears the connection down and waits for the loops to stop. The
// Recv channel closes; Err stays nil.
func (c *Conn) Close() error {
	if !c.state.CompareAndSwap(int32(StateConnected), int32(StateClosing)) {
		// Already lost or closing; just wait for the loops.
		c.group.Wait()
		return nil
	}
	c.cancel()
	err := c.conn.Close()
	c.group.Wait()
	c.closeOnce.Do(func() { close(c.recv) })
	c.state.Store(int32(StateDisconnected))
	c.logger.Info("closed")
	return err
}

// readLoop is the connection's only reader. It decodes each frame into an
// Incoming and feeds Recv in arrival order.
func (c *Conn) readLoop() error {
	for {
		payload, err := protocol.ReadFrame(c.conn)
		if err != nil {
			if State(c.state.Load()) == StateClosing {
				return nil
			}
			c.fail(err)
			return err
		}
		c.touch()

		inc, err := message.ParseIncoming(codec.Split(payload))
		if err != nil {
			c.logger.Warn("unparseable frame", "err", err, "bytes", len(payload))
			continue
		}
		select {
		case c.recv <- inc:
		case <-c.ctx.Done():
			return nil
		}
	}
}

// keepaliveLoop probes an idle link with CurrentTime requests.
func (c *Conn) keepaliveLoop(interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return nil
		case <-ticker.C:
			idle := time.Since(time.Unix(0, c.lastActivity.Load()))
			if idle < interval {
				continue
			}
			if err := c.Send(c.ctx, message.ReqCurrentTime()); err != nil {
				if State(c.state.Load()) == StateClosing {
					return nil
				}
				c.fail(errors.Wrap(err, "keepalive probe"))
				return err
			}
			c.logger.Debug("keepalive probe sent", "idle", idle)
		}
	}
}

// supervise closes Recv exactly once after every loop has stopped, for
// both the failure path and the local-close path.
func (c *Conn) supervise() {
	c.group.Wait()
	c.closeOnce.Do(func() { close(c.recv) })
}

// fail records the first fatal error and tears the session down.
func (c *Conn) fail(err error) {
	c.errOnce.Do(func() {
		c.errMu.Lock()
		c.err = errors.Wrap(ErrConnectionLost, err.Error())
		c.errMu.Unlock()
		c.state.Store(int32(StateDisconnected))
		c.cancel()
		c.conn.Close()
		c.logger.Warn("connection lost", "err", err)
	})
}

func (c *Conn) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}
