// Package wire implements the 4-byte packed message header used by the
// demo driver's synthetic tasks.
//
// Layout, low address first:
//
//	byte 0   bits 0-3 message type, bits 4-7 message source
//	byte 1   counter
//	byte 2-3 payload length, little-endian
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Size is the encoded header length in bytes.
const Size = 4

var (
	// ErrShortBuffer is returned when decoding from fewer than Size bytes.
	ErrShortBuffer = errors.New("wire: buffer shorter than header")

	// ErrFieldRange is returned when a 4-bit field holds a value above 0x0F.
	ErrFieldRange = errors.New("wire: field exceeds 4 bits")
)

// Header is one packed message header. MsgType and MsgSource are 4-bit
// fields sharing the first byte.
type Header struct {
	MsgType   uint8
	MsgSource uint8
	Counter   uint8
	Length    uint16
}

// MarshalBinary packs the header into its 4-byte wire form.
func (h Header) MarshalBinary() ([]byte, error) {
	if h.MsgType > 0x0F || h.MsgSource > 0x0F {
		return nil, fmt.Errorf("%w: type=%#x source=%#x", ErrFieldRange, h.MsgType, h.MsgSource)
	}
	buf := make([]byte, Size)
	buf[0] = h.MsgSource<<4 | h.MsgType
	buf[1] = h.Counter
	binary.LittleEndian.PutUint16(buf[2:], h.Length)
	return buf, nil
}

// UnmarshalBinary decodes a header from the first Size bytes of data.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return fmt.Errorf("%w: got %d bytes", ErrShortBuffer, len(data))
	}
	h.MsgType = data[0] & 0x0F
	h.MsgSource = data[0] >> 4
	h.Counter = data[1]
	h.Length = binary.LittleEndian.Uint16(data[2:])
	return nil
}

// Packed returns the header as a single big-endian 32-bit value, the
// form the header travels in when the 4 bytes are read in network byte
// order. Useful for logging and comparisons.
func (h Header) Packed() (uint32, error) {
	buf, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

func (h Header) String() string {
	return fmt.Sprintf("type=%d source=%d counter=%d length=%d",
		h.MsgType, h.MsgSource, h.Counter, h.Length)
}
