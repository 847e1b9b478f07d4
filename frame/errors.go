package frame

import "errors"

// Framing errors. A frame that fails one of these checks is discarded and the
// decoder waits for the next preamble.
var (
	// ErrBadPreamble indicates a completed frame that does not start with
	// [Preamble]. The resync rule makes this unreachable; seeing it means the
	// decoder's buffer invariant is broken.
	ErrBadPreamble = errors.New("frame: bad preamble")

	// ErrBadPostamble indicates a completed frame that does not end with [Postamble].
	ErrBadPostamble = errors.New("frame: bad postamble")

	// ErrChecksumMismatch indicates that the CRC carried by the frame differs
	// from the one computed over the received bytes.
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")

	// ErrBufferOverflow indicates that the receive buffer grew past its maximum
	// size and was flushed.
	ErrBufferOverflow = errors.New("frame: receive buffer overflow")
)

var (
	// ErrSeqMismatch indicates that a received frame does not echo the
	// sequence number of the last sent packet.
	ErrSeqMismatch = errors.New("frame: sequence number mismatch")

	// ErrPayloadTooLarge indicates a payload that does not fit the 2-byte length field.
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// IsSoft reports whether err is a soft decode error, i.e. one that is returned
// together with a usable packet.
func IsSoft(err error) bool {
	return errors.Is(err, ErrSeqMismatch)
}
