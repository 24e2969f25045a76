// Package protocol implements the length-prefixed wire framing used by the
// trading gateway.
//
// It solves TCP's sticky packet problem with a 4-byte length prefix: the
// receiver reads the prefix first to learn the payload size, then reads
// exactly that many bytes. The payload itself is a run of UTF-8 text fields,
// each terminated by a single null byte (see the codec package).
//
// Frame format:
//
//	0         4
//	┌─────────┬─────────────────────────────┐
//	│ length  │ field\0field\0...field\0    │
//	│ uint32  │ length bytes                │
//	└─────────┴─────────────────────────────┘
//
// The only exception is the very first thing a client sends: the raw bytes
// "API\0" (no length prefix), which tells the gateway to speak the
// version-negotiated framing above. Everything after that preamble, in both
// directions, is length-prefixed.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	// PrefixSize is the byte width of the big-endian length prefix.
	PrefixSize = 4

	// MaxFrameSize caps the declared payload length. A prefix above this
	// bound means the stream is corrupt (or hostile) and the connection
	// must be torn down rather than allocating gigabytes.
	MaxFrameSize = 0xFFFFFF

	// APIPrefix is the unprefixed preamble opening every connection.
	APIPrefix = "API\x00"

	// MinClientVersion and MaxClientVersion bound the protocol versions
	// this implementation can speak. They are exchanged during the
	// handshake as "v{min}..{max}".
	MinClientVersion = 100
	MaxClientVersion = 157
)

var (
	// ErrFrameTooLarge reports a length prefix above MaxFrameSize.
	// Connection-fatal: the framing can no longer be trusted.
	ErrFrameTooLarge = errors.New("frame length exceeds limit")
)

// Encode writes one complete frame (length prefix + payload) to w.
// The caller must hold a write lock if multiple goroutines share the same
// writer, otherwise frames from different requests will interleave and
// corrupt the stream.
func Encode(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return errors.Wrapf(ErrFrameTooLarge, "%d bytes", len(payload))
	}
	buf := make([]byte, PrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:PrefixSize], uint32(len(payload)))
	copy(buf[PrefixSize:], payload)
	// Single Write so prefix and payload can never be split by a
	// concurrent writer that takes the lock between two calls.
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one complete frame from r and returns its payload.
// Uses io.ReadFull to guarantee exactly N bytes are read, preventing
// partial reads. Suits callers that own a blocking reader (one reader
// goroutine per connection); for byte-at-a-time feeding use Decoder.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [PrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > MaxFrameSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Decoder incrementally assembles frames from an arbitrarily fragmented
// byte stream. Feed bytes with Write, then drain complete frames with Next.
// Next never blocks: with no complete frame buffered it reports "not yet"
// by returning (nil, nil), and the caller supplies more bytes on the next
// read.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Write appends p to the internal buffer. It never fails; the error return
// exists to satisfy io.Writer so the Decoder can sit behind io.Copy or a
// TeeReader in tests.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Next returns the payload of the next complete frame, or (nil, nil) when
// the buffer does not yet hold one. A declared length above MaxFrameSize
// returns ErrFrameTooLarge; the Decoder is then poisoned and the connection
// must be dropped, since the frame boundary is lost.
func (d *Decoder) Next() ([]byte, error) {
	if len(d.buf) < PrefixSize {
		return nil, nil
	}
	n := binary.BigEndian.Uint32(d.buf[:PrefixSize])
	if n > MaxFrameSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes", n)
	}
	total := PrefixSize + int(n)
	if len(d.buf) < total {
		return nil, nil
	}
	payload := make([]byte, n)
	copy(payload, d.buf[PrefixSize:total])
	// Compact instead of re-slicing so the buffer does not pin the whole
	// history of the stream.
	d.buf = append(d.buf[:0], d.buf[total:]...)
	return payload, nil
}

// Buffered reports how many fed bytes are waiting to form a frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// VersionRange renders the handshake version announcement, e.g. "v100..157".
func VersionRange(min, max int) string {
	return fmt.Sprintf("v%d..%d", min, max)
}
