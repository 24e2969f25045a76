package gateway

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"ibtws/codec"
	"ibtws/message"
	"ibtws/protocol"
)

const handshakeTimeout = 10 * time.Second

// Session is one client connection on the gateway side. Frames are read
// and handled one at a time; replies from concurrent pushes share the
// write mutex so frames never interleave mid-write.
type Session struct {
	gw      *Gateway
	conn    net.Conn
	writeMu sync.Mutex
	logger  *slog.Logger

	// Negotiated during the handshake.
	ClientID int64
	Version  int
}

func newSession(g *Gateway, conn net.Conn) *Session {
	return &Session{
		gw:     g,
		conn:   conn,
		logger: g.logger.With("remote", conn.RemoteAddr().String()),
	}
}

func (s *Session) run() {
	defer s.gw.removeSession(s)
	defer s.conn.Close()

	if err := s.handshake(); err != nil {
		s.logger.Warn("handshake failed", "err", err)
		return
	}
	s.logger.Debug("session up", "clientID", s.ClientID, "version", s.Version)

	for {
		payload, err := protocol.ReadFrame(s.conn)
		if err != nil {
			s.logger.Debug("session closed", "err", err)
			return
		}
		req, err := message.ParseRequest(codec.Split(payload))
		if err != nil {
			s.logger.Warn("unparseable request frame", "err", err)
			continue
		}
		s.gw.script.dispatch(s, req)
	}
}

// handshake speaks the server side of the connection preamble: validate
// "API\x00" and the client's version range, send the server hello, then
// answer StartApi with NextValidId and ManagedAccts.
func (s *Session) handshake() error {
	s.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer s.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, len(protocol.APIPrefix))
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return errors.Wrap(err, "read preamble")
	}
	if string(buf) != protocol.APIPrefix {
		return errors.Errorf("bad preamble %q", buf)
	}

	payload, err := protocol.ReadFrame(s.conn)
	if err != nil {
		return errors.Wrap(err, "read version range")
	}
	min, max, err := parseVersionRange(payload)
	if err != nil {
		return err
	}
	if min > s.gw.serverVersion {
		return errors.Errorf("client version range %d..%d above server version %d", min, max, s.gw.serverVersion)
	}
	s.Version = s.gw.serverVersion
	if s.Version > max {
		s.Version = max
	}

	hello := &codec.Writer{}
	hello.Int(int64(s.Version)).String(time.Now().Format("20060102 15:04:05 MST"))
	if err := s.Send(hello); err != nil {
		return errors.Wrap(err, "send hello")
	}

	payload, err = protocol.ReadFrame(s.conn)
	if err != nil {
		return errors.Wrap(err, "read start api")
	}
	req, err := message.ParseRequest(codec.Split(payload))
	if err != nil {
		return err
	}
	if req.Tag != message.OutStartAPI {
		return errors.Errorf("expected start api, got %s", req.Tag)
	}
	r := req.Reader()
	r.Skip(1) // version
	s.ClientID = r.Int()

	if err := s.Send(frame(message.InNextValidID).Int(1).Int(s.gw.nextOrderID.Load())); err != nil {
		return err
	}
	return s.Send(frame(message.InManagedAccts).Int(1).String(strings.Join(s.gw.accounts, ",")))
}

// Send writes one reply frame. Safe for concurrent use.
func (s *Session) Send(w *codec.Writer) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return protocol.Encode(s.conn, w.Payload())
}

// parseVersionRange reads "v{min}..{max}" or "v{n}", with optional
// connect options after a space.
func parseVersionRange(payload []byte) (min, max int, err error) {
	text := strings.TrimSuffix(string(payload), "\x00")
	if opts := strings.IndexByte(text, ' '); opts >= 0 {
		text = text[:opts]
	}
	if _, err := fmt.Sscanf(text, "v%d..%d", &min, &max); err == nil {
		return min, max, nil
	}
	if _, err := fmt.Sscanf(text, "v%d", &min); err == nil {
		return min, min, nil
	}
	return 0, 0, errors.Errorf("bad version announcement %q", text)
}
