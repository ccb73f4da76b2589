package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Wire layout, all integers big-endian:
//
//	[packetType:u16][versionLen:u8][version][sequence:u32][payloadLen:u32][payload]
const (
	// Version is the protocol version string carried in every frame.
	Version = "1.0.0"

	// MaxPayloadSize caps a single frame's payload.
	MaxPayloadSize = 1 << 20

	headerSize = 2 + 1 + 4 + 4
)

var (
	ErrPayloadTooLarge = errors.New("payload exceeds maximum frame size")
	ErrVersionMismatch = errors.New("frame version mismatch")
	ErrBadPayloadLen   = errors.New("invalid payload length")
)

// Frame is one decoded protocol unit.
type Frame struct {
	ID      PacketID
	Seq     uint32
	Payload []byte
}

// EncodeFrame serializes one frame into the wire layout.
func EncodeFrame(id PacketID, seq uint32, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	buf := make([]byte, 0, headerSize+len(Version)+len(payload))
	buf = binary.BigEndian.AppendUint16(buf, uint16(id))
	buf = append(buf, byte(len(Version)))
	buf = append(buf, Version...)
	buf = binary.BigEndian.AppendUint32(buf, seq)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	return buf, nil
}

// DecodeFrame parses the first complete frame out of buf.
//
// TCP gives no message boundaries: buf may hold zero, one or many frames and
// a frame may span reads. It returns (nil, buf, nil) while the frame is still
// incomplete, and on success the frame plus the unconsumed remainder. A
// non-nil error means the leading frame is malformed; rest is positioned past
// the bytes that could be skipped.
func DecodeFrame(buf []byte) (f *Frame, rest []byte, err error) {
	if len(buf) < 3 {
		return nil, buf, nil
	}
	verLen := int(buf[2])
	hdr := headerSize + verLen
	if len(buf) < hdr {
		return nil, buf, nil
	}

	id := PacketID(binary.BigEndian.Uint16(buf[0:2]))
	version := buf[3 : 3+verLen]
	seq := binary.BigEndian.Uint32(buf[3+verLen : 7+verLen])
	payloadLen := binary.BigEndian.Uint32(buf[7+verLen : 11+verLen])

	if !bytes.Equal(version, []byte(Version)) {
		return nil, buf[len(buf):], fmt.Errorf("%w: %q", ErrVersionMismatch, version)
	}
	if payloadLen > MaxPayloadSize {
		return nil, buf[len(buf):], fmt.Errorf("%w: %d bytes", ErrBadPayloadLen, payloadLen)
	}
	total := hdr + int(payloadLen)
	if len(buf) < total {
		return nil, buf, nil
	}

	payload := make([]byte, payloadLen)
	copy(payload, buf[hdr:total])
	return &Frame{ID: id, Seq: seq, Payload: payload}, buf[total:], nil
}

// Decoder accumulates stream bytes and yields complete frames.
type Decoder struct {
	buf []byte
}

// Feed appends freshly read bytes to the rolling buffer.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next returns the next complete frame, or nil if more bytes are needed.
// A malformed leading frame is reported once and its buffered bytes are
// dropped; the connection itself stays usable.
func (d *Decoder) Next() (*Frame, error) {
	f, rest, err := DecodeFrame(d.buf)
	d.buf = rest
	if err != nil {
		return nil, err
	}
	return f, nil
}
