package frame

import (
	"fmt"
)

// DefaultMaxBufferSize is the default limit of the receive buffer.
const DefaultMaxBufferSize = 1000

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithMaxBufferSize sets the receive buffer limit. Values smaller than one
// empty frame are ignored.
func WithMaxBufferSize(n int) DecoderOption {
	return func(d *Decoder) {
		if n >= HeaderSize+TrailerSize {
			d.maxSize = n
		}
	}
}

// WithStrictSequence makes the decoder drop frames whose sequence number does
// not echo the last sent one, instead of delivering them with ErrSeqMismatch.
func WithStrictSequence(strict bool) DecoderOption {
	return func(d *Decoder) {
		d.strictSeq = strict
	}
}

// Decoder reassembles frames from a raw byte stream.
//
// The receive buffer never starts with anything but [Preamble] and never
// grows beyond the configured maximum size.
//
// Decoder is NOT goroutine-safe; it is owned by a single control loop.
type Decoder struct {
	buf         []byte
	maxSize     int
	strictSeq   bool
	expectedSeq Seq
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{maxSize: DefaultMaxBufferSize}
	for _, opt := range opts {
		opt(d)
	}
	d.buf = make([]byte, 0, min(d.maxSize, 64))

	return d
}

// SetExpectedSeq records the sequence number of the last packet sent.
// Incoming frames are expected to echo it.
func (d *Decoder) SetExpectedSeq(seq Seq) {
	d.expectedSeq = seq
}

// ExpectedSeq returns the sequence number incoming frames are checked against.
func (d *Decoder) ExpectedSeq() Seq {
	return d.expectedSeq
}

// Buffered returns the number of bytes held in the receive buffer.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset discards the receive buffer.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Feed consumes one byte from the stream.
//
// It returns (nil, nil) while a frame is incomplete or while bytes are being
// skipped in search of a preamble. When a frame completes, the buffer is
// flushed and Feed returns either the decoded packet or a framing error.
//
// A sequence mismatch returns both the packet and an error wrapping
// [ErrSeqMismatch], unless the decoder is strict, in which case the packet
// is dropped.
func (d *Decoder) Feed(b byte) (*Packet, error) {
	if len(d.buf) == 0 && b != Preamble {
		return nil, nil
	}

	d.buf = append(d.buf, b)

	if len(d.buf) > d.maxSize {
		size := len(d.buf)
		d.Reset()

		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrBufferOverflow, size, d.maxSize)
	}

	if len(d.buf) < HeaderSize {
		return nil, nil
	}

	if len(d.buf) != HeaderSize+payloadLen(d.buf)+TrailerSize {
		return nil, nil
	}

	pkt, err := ParsePacket(d.buf)
	d.Reset()
	if err != nil {
		return nil, err
	}

	if pkt.Seq != d.expectedSeq {
		err = fmt.Errorf("%w: got %d, expected %d", ErrSeqMismatch, pkt.Seq, d.expectedSeq)
		if d.strictSeq {
			return nil, err
		}

		return pkt, err
	}

	return pkt, nil
}
