package aap

import "encoding/binary"

// Frame Header Format (4 bytes):
//
//	[1B] channel id
//	[1B] flags
//	[2B] payload length (big-endian)
//
// The encrypted bit (0x08) is set on every valid frame once the session
// handshake has completed, which is the only phase this layer sees. A
// header without it indicates the reader has lost frame alignment.
const (
	// HeaderSize is the fixed size of a frame header in bytes.
	HeaderSize = 4

	// FlagEncrypted marks a frame whose payload is encrypted.
	FlagEncrypted uint8 = 0x08

	// MaxPayloadSize is the largest payload a single frame can carry,
	// bounded by the 16-bit length field.
	MaxPayloadSize = 1<<16 - 1
)

// Header is a decoded frame header.
type Header struct {
	Channel uint8
	Flags   uint8
	Length  uint16
}

// ParseHeader decodes the first HeaderSize bytes of buf.
// buf must be at least HeaderSize long.
func ParseHeader(buf []byte) Header {
	return Header{
		Channel: buf[0],
		Flags:   buf[1],
		Length:  binary.BigEndian.Uint16(buf[2:4]),
	}
}

// Encrypted reports whether the encrypted bit is set.
func (h Header) Encrypted() bool {
	return h.Flags&FlagEncrypted == FlagEncrypted
}

// PutHeader encodes h into the first HeaderSize bytes of buf.
// buf must be at least HeaderSize long.
func PutHeader(buf []byte, h Header) {
	buf[0] = h.Channel
	buf[1] = h.Flags
	binary.BigEndian.PutUint16(buf[2:4], h.Length)
}

// AppendFrame appends a complete frame (header + payload) to dst and
// returns the extended slice. len(payload) must fit in MaxPayloadSize.
func AppendFrame(dst []byte, channel, flags uint8, payload []byte) []byte {
	var hdr [HeaderSize]byte
	PutHeader(hdr[:], Header{Channel: channel, Flags: flags, Length: uint16(len(payload))})
	dst = append(dst, hdr[:]...)
	return append(dst, payload...)
}

// Message is a decoded protocol message as it travels from the link reader
// through a lane to a handler. It is immutable by convention: ownership
// passes from the reader to the accepting lane, then to the handler for the
// duration of the callback.
type Message struct {
	Channel uint8
	Flags   uint8
	Payload []byte
}
