package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeReadFrame(t *testing.T) {
	payload := []byte("49\x001\x00")

	var buf bytes.Buffer
	if err := Encode(&buf, payload); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Prefix must equal the payload byte count exactly
	if got := binary.BigEndian.Uint32(buf.Bytes()[:PrefixSize]); got != uint32(len(payload)) {
		t.Errorf("length prefix mismatch: got %d, want %d", got, len(payload))
	}

	decoded, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("payload mismatch: got %q, want %q", decoded, payload)
	}
	if buf.Len() != 0 {
		t.Errorf("ReadFrame left %d unread bytes", buf.Len())
	}
}

func TestEncodeEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if len(payload) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(payload))
	}
}

// 逐字节喂入，验证解码器可以跨任意分片恢复完整帧
func TestDecoderFragmented(t *testing.T) {
	payload := []byte("17\x00101\x00bar\x00")
	var wire bytes.Buffer
	if err := Encode(&wire, payload); err != nil {
		t.Fatal(err)
	}

	dec := NewDecoder()
	for i, b := range wire.Bytes() {
		if _, err := dec.Write([]byte{b}); err != nil {
			t.Fatal(err)
		}
		frame, err := dec.Next()
		if err != nil {
			t.Fatalf("Next failed at byte %d: %v", i, err)
		}
		if i < wire.Len()-1 {
			if frame != nil {
				t.Fatalf("got a frame after %d of %d bytes", i+1, wire.Len())
			}
			continue
		}
		if frame == nil {
			t.Fatal("no frame after the final byte")
		}
		if !bytes.Equal(frame, payload) {
			t.Fatalf("payload mismatch: got %q, want %q", frame, payload)
		}
	}
	if dec.Buffered() != 0 {
		t.Errorf("decoder kept %d stale bytes", dec.Buffered())
	}
}

func TestDecoderMultipleFrames(t *testing.T) {
	first := []byte("1\x006\x005\x00")
	second := []byte("2\x006\x005\x00")
	var wire bytes.Buffer
	if err := Encode(&wire, first); err != nil {
		t.Fatal(err)
	}
	if err := Encode(&wire, second); err != nil {
		t.Fatal(err)
	}
	// Trailing partial frame: half a prefix
	wire.Write([]byte{0x00, 0x00})

	dec := NewDecoder()
	if _, err := dec.Write(wire.Bytes()); err != nil {
		t.Fatal(err)
	}

	for i, want := range [][]byte{first, second} {
		frame, err := dec.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(frame, want) {
			t.Fatalf("frame %d mismatch: got %q, want %q", i, frame, want)
		}
	}

	frame, err := dec.Next()
	if err != nil || frame != nil {
		t.Fatalf("expected incomplete, got frame=%v err=%v", frame, err)
	}
	if dec.Buffered() != 2 {
		t.Errorf("buffered = %d, want 2", dec.Buffered())
	}
}

func TestDecoderOversized(t *testing.T) {
	dec := NewDecoder()
	var prefix [PrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], MaxFrameSize+1)
	if _, err := dec.Write(prefix[:]); err != nil {
		t.Fatal(err)
	}
	_, err := dec.Next()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestReadFrameOversized(t *testing.T) {
	var buf bytes.Buffer
	var prefix [PrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], MaxFrameSize+1)
	buf.Write(prefix[:])

	_, err := ReadFrame(&buf)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

// 1MB 的消息体
func TestDecoderLargeBody(t *testing.T) {
	large := make([]byte, 1024*1024)
	for i := range large {
		large[i] = byte(i % 256)
	}

	var wire bytes.Buffer
	if err := Encode(&wire, large); err != nil {
		t.Fatalf("Encode 失败: %v", err)
	}

	dec := NewDecoder()
	if _, err := dec.Write(wire.Bytes()); err != nil {
		t.Fatal(err)
	}
	frame, err := dec.Next()
	if err != nil {
		t.Fatalf("Next 失败: %v", err)
	}
	if !bytes.Equal(frame, large) {
		t.Errorf("大消息体内容不匹配")
	}
}

func TestVersionRange(t *testing.T) {
	if got := VersionRange(MinClientVersion, MaxClientVersion); got != "v100..157" {
		t.Errorf("VersionRange: got %q, want %q", got, "v100..157")
	}
}
