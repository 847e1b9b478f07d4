// Package frame implements the wire framing used between a host and a TAP-in
// style bridge console and the lens attached behind it.
//
// # Frame Layout
//
// Every packet on the wire has the following little-endian layout:
//
//	[Preamble(1)=0x0F][Seq(1)][Dest(2)][Length(2)][Payload(Length)][CRC(2)][Postamble(1)=0xF0]
//
// Dest selects the addressee: 0 is the lens (peripheral), 1 is the console
// (bridge). The CRC is a non-reflected CRC-16 with polynomial 0x1021 and
// initial value 0xF1EF, computed over every byte from the preamble up to and
// including the last payload byte.
//
// # Receiving
//
// [Decoder] consumes the raw byte stream one byte at a time. Bytes that
// arrive while no frame is in progress are dropped until a preamble shows up,
// so the decoder resynchronizes on its own after line noise or a corrupt frame.
// A completed frame is always flushed from the buffer, valid or not.
//
// # Sequence Numbers
//
// The console echoes the sequence number of the command it answers. The
// decoder compares incoming frames with the last sent sequence number, but a
// mismatch is reported as a soft error by default: the packet is still
// delivered together with [ErrSeqMismatch].
package frame
