// Package message defines the typed message model for the gateway protocol.
//
// Every frame carries a leading numeric tag identifying the message shape;
// many shapes follow the tag with a schema version, and the remaining fields
// are positional per (tag, version). Outbound messages are built with
// Outgoing; inbound frames parse into Incoming and, for the shapes the
// client surfaces, decode further into typed events.
package message

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"ibtws/codec"
)

// ErrEmptyMessage reports a frame with no fields at all.
var ErrEmptyMessage = errors.New("empty message")

// Incoming is one parsed inbound message: the tag plus every field after
// it, still in wire form. Unknown tags parse fine; they simply route to
// the global event sink.
type Incoming struct {
	Tag    In
	Fields []string // fields after the tag, positional per (tag, version)
}

// ParseIncoming interprets a frame's field list as an inbound message.
func ParseIncoming(fields []string) (*Incoming, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyMessage
	}
	tag, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "message tag %q", fields[0])
	}
	return &Incoming{Tag: In(tag), Fields: fields[1:]}, nil
}

// Reader returns a cursor over the message's fields (after the tag).
func (m *Incoming) Reader() *codec.Reader {
	return codec.NewReader(m.Fields)
}

// Request is one parsed client-to-gateway message: the gateway-side twin
// of Incoming. The simulator dispatches on its tag.
type Request struct {
	Tag    Out
	Fields []string
}

// ParseRequest interprets a frame's field list as a client request.
func ParseRequest(fields []string) (*Request, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyMessage
	}
	tag, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "request tag %q", fields[0])
	}
	return &Request{Tag: Out(tag), Fields: fields[1:]}, nil
}

// Reader returns a cursor over the request's fields (after the tag).
func (m *Request) Reader() *codec.Reader {
	return codec.NewReader(m.Fields)
}

// Outgoing builds one outbound message: the tag, then any fields appended
// through the embedded writer methods. Build calls chain.
type Outgoing struct {
	tag Out
	w   codec.Writer
}

// NewOutgoing starts a message with the given tag as its first field.
func NewOutgoing(tag Out) *Outgoing {
	m := &Outgoing{tag: tag}
	m.w.Int(int64(tag))
	return m
}

// Tag returns the message's outbound tag.
func (m *Outgoing) Tag() Out {
	return m.tag
}

// Version appends the schema version field. Not every tag carries one;
// the request builders know which do.
func (m *Outgoing) Version(v int64) *Outgoing { m.w.Int(v); return m }

// String appends a text field.
func (m *Outgoing) String(s string) *Outgoing { m.w.String(s); return m }

// Int appends an integer field.
func (m *Outgoing) Int(v int64) *Outgoing { m.w.Int(v); return m }

// Float appends a decimal field.
func (m *Outgoing) Float(v float64) *Outgoing { m.w.Float(v); return m }

// Bool appends "1" or "0".
func (m *Outgoing) Bool(v bool) *Outgoing { m.w.Bool(v); return m }

// Blank appends an empty field (absent optional).
func (m *Outgoing) Blank() *Outgoing { m.w.Blank(); return m }

// BlankN appends n empty fields.
func (m *Outgoing) BlankN(n int) *Outgoing { m.w.BlankN(n); return m }

// Time appends a timestamp with the given layout, blank for zero time.
func (m *Outgoing) Time(t time.Time, layout string) *Outgoing {
	m.w.Time(t, layout)
	return m
}

// FloatOrBlank appends the value, or an empty field when v is zero.
// The wire has no other way to say "unset" for optional prices.
func (m *Outgoing) FloatOrBlank(v float64) *Outgoing {
	if v == 0 {
		return m.Blank()
	}
	return m.Float(v)
}

// IntOrBlank appends the value, or an empty field when v is zero.
func (m *Outgoing) IntOrBlank(v int64) *Outgoing {
	if v == 0 {
		return m.Blank()
	}
	return m.Int(v)
}

// Fields returns the message's fields including the leading tag.
func (m *Outgoing) Fields() []string {
	return m.w.Fields()
}

// Encode renders the message as a frame payload.
func (m *Outgoing) Encode() []byte {
	return m.w.Payload()
}

// Idempotent reports whether resending the message after a transient
// write failure is safe. Orders and cancels are not: the first copy may
// have reached the gateway.
func (m *Outgoing) Idempotent() bool {
	switch m.tag {
	case OutPlaceOrder, OutCancelOrder, OutReqGlobalCancel, OutStartAPI:
		return false
	}
	return true
}
