package frame

import (
	"encoding/binary"
	"fmt"
)

// Frame sentinels and sizes.
const (
	// Preamble is the first byte of every frame.
	Preamble byte = 0x0F
	// Postamble is the last byte of every frame.
	Postamble byte = 0xF0

	// HeaderSize is the size of preamble, sequence, destination and length fields.
	HeaderSize = 6
	// TrailerSize is the size of the CRC and the postamble.
	TrailerSize = 3

	// MaxPayloadSize is the largest payload the 2-byte length field can describe.
	MaxPayloadSize = 0xFFFF
)

// Destination selects the addressee of a packet.
type Destination uint16

const (
	// DestPeripheral addresses the lens attached to the console.
	DestPeripheral Destination = 0
	// DestBridge addresses the console itself.
	DestBridge Destination = 1
)

func (d Destination) String() string {
	switch d {
	case DestPeripheral:
		return "lens"
	case DestBridge:
		return "console"
	default:
		return fmt.Sprintf("dest(%d)", uint16(d))
	}
}

// Opcode is the first payload byte of a command or a reply.
type Opcode byte

// Reserved opcodes.
const (
	OpIsAttached  Opcode = 0xF7
	OpPowerOn     Opcode = 0xF8
	OpPowerOff    Opcode = 0xF9
	OpGetStatus   Opcode = 0xFA
	OpGetSettings Opcode = 0xFC
	OpError       Opcode = 0xFF
)

func (op Opcode) String() string {
	switch op {
	case OpIsAttached:
		return "IS_ATTACHED"
	case OpPowerOn:
		return "POWER_ON"
	case OpPowerOff:
		return "POWER_OFF"
	case OpGetStatus:
		return "GET_STATUS"
	case OpGetSettings:
		return "GET_SETTINGS"
	case OpError:
		return "ERROR"
	default:
		return fmt.Sprintf("0x%02X", byte(op))
	}
}

// Seq is a packet sequence number.
type Seq byte

const (
	// SeqUnset marks "nothing sent yet". It is never put on the wire.
	SeqUnset Seq = 0
	// SeqFirst is the first sequence number used, and the wrap-around target.
	SeqFirst Seq = 1
	// SeqMax is the last sequence number before wrapping.
	SeqMax Seq = 0xFF
)

// Next returns the sequence number following s, wrapping from SeqMax to SeqFirst.
func (s Seq) Next() Seq {
	if s == SeqMax || s == SeqUnset {
		return SeqFirst
	}

	return s + 1
}

// IsValid reports whether s may appear on the wire.
func (s Seq) IsValid() bool {
	return s != SeqUnset
}

// Packet is a decoded or to-be-encoded frame.
type Packet struct {
	Seq     Seq
	Dest    Destination
	Payload []byte
}

// Opcode returns the first payload byte, or false if the payload is empty.
func (p *Packet) Opcode() (Opcode, bool) {
	if len(p.Payload) == 0 {
		return 0, false
	}

	return Opcode(p.Payload[0]), true
}

// Len returns the size of the packet on the wire.
func (p *Packet) Len() int {
	return HeaderSize + len(p.Payload) + TrailerSize
}

// Pack serializes the packet to its wire format.
func (p *Packet) Pack() ([]byte, error) {
	if len(p.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(p.Payload), MaxPayloadSize)
	}

	buf := make([]byte, p.Len())
	buf[0] = Preamble
	buf[1] = byte(p.Seq)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(p.Dest))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(p.Payload))) //nolint:gosec // bounded above
	copy(buf[HeaderSize:], p.Payload)

	end := HeaderSize + len(p.Payload)
	binary.LittleEndian.PutUint16(buf[end:end+2], Checksum(buf[:end]))
	buf[end+2] = Postamble

	return buf, nil
}

// Encode builds a packet for dest carrying payload and returns its wire bytes.
func Encode(dest Destination, payload []byte, seq Seq) ([]byte, error) {
	p := Packet{Seq: seq, Dest: dest, Payload: payload}

	return p.Pack()
}

// payloadLen returns the length field of a buffered header.
func payloadLen(header []byte) int {
	return int(binary.LittleEndian.Uint16(header[4:6]))
}

// ParsePacket validates a complete frame and returns the packet it carries.
//
// data must hold exactly one frame. ParsePacket checks:
//   - the frame size matches the length field;
//   - the preamble and postamble sentinels;
//   - the CRC.
//
// The returned payload does not alias data.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < HeaderSize+TrailerSize {
		return nil, fmt.Errorf("frame: short frame: %d bytes", len(data))
	}

	length := payloadLen(data)
	if len(data) != HeaderSize+length+TrailerSize {
		return nil, fmt.Errorf("frame: length mismatch: got %d bytes, header declares %d", len(data), HeaderSize+length+TrailerSize)
	}

	if data[0] != Preamble {
		return nil, fmt.Errorf("%w: 0x%02X", ErrBadPreamble, data[0])
	}

	end := HeaderSize + length
	if post := data[end+2]; post != Postamble {
		return nil, fmt.Errorf("%w: 0x%02X", ErrBadPostamble, post)
	}

	wireCRC := binary.LittleEndian.Uint16(data[end : end+2])
	calcCRC := Checksum(data[:end])
	if wireCRC != calcCRC {
		return nil, fmt.Errorf("%w: wire=0x%04X, computed=0x%04X", ErrChecksumMismatch, wireCRC, calcCRC)
	}

	p := &Packet{
		Seq:     Seq(data[1]),
		Dest:    Destination(binary.LittleEndian.Uint16(data[2:4])),
		Payload: make([]byte, length),
	}
	copy(p.Payload, data[HeaderSize:end])

	return p, nil
}
