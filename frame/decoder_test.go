package frame

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_SkipsLeadingGarbage(t *testing.T) {
	d := NewDecoder()
	d.SetExpectedSeq(4)

	frame := mustEncode(t, DestBridge, []byte{byte(OpGetStatus), 0x01}, 4)
	stream := append([]byte{0x00, 0xFF, 0xF0, 0x12}, frame...)

	res := feedAll(d, stream)
	require.Empty(t, res.errs)
	require.Len(t, res.packets, 1)
	assert.Equal(t, DestBridge, res.packets[0].Dest)
	assert.Equal(t, []byte{byte(OpGetStatus), 0x01}, res.packets[0].Payload)
	assert.Equal(t, 0, d.Buffered())
}

func TestDecoder_GarbageWithoutPreambleNeverBuffers(t *testing.T) {
	d := NewDecoder()
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // deterministic test data

	for range 10000 {
		b := byte(rng.Intn(256))
		if b == Preamble {
			continue
		}
		pkt, err := d.Feed(b)
		require.Nil(t, pkt)
		require.NoError(t, err)
		require.Equal(t, 0, d.Buffered())
	}
}

func TestDecoder_RandomStreamStaysBounded(t *testing.T) {
	const maxSize = 64
	d := NewDecoder(WithMaxBufferSize(maxSize))
	rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data

	for range 50000 {
		b := byte(rng.Intn(256))
		// Without a postamble byte no frame can ever validate.
		if b == Postamble {
			b = Preamble
		}

		pkt, err := d.Feed(b)
		require.Nil(t, pkt, "random stream must not produce a payload")
		if err != nil {
			assert.True(t,
				errorIsAny(err, ErrBadPostamble, ErrBufferOverflow),
				"unexpected error: %v", err)
		}
		require.LessOrEqual(t, d.Buffered(), maxSize)
	}
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

func TestDecoder_SingleBitFlipIsRejected(t *testing.T) {
	payload := []byte{byte(OpGetStatus), 0x00, 0x10, 0x20, 'A', '0', '2', '5'}
	good := mustEncode(t, DestPeripheral, payload, 7)

	for i := range good {
		for bit := range 8 {
			corrupt := bytes.Clone(good)
			corrupt[i] ^= 1 << bit

			d := NewDecoder()
			d.SetExpectedSeq(7)
			res := feedAll(d, corrupt)

			assert.Empty(t, res.packets, "byte %d bit %d produced a payload", i, bit)

			switch {
			case i == 0:
				// Preamble lost: nothing is buffered, nothing is emitted.
				assert.Empty(t, res.errs)
			case i == 4 || i == 5:
				// Length field changed: frame completes elsewhere or never.
			case i == len(good)-1:
				require.Len(t, res.errs, 1)
				assert.ErrorIs(t, res.errs[0], ErrBadPostamble)
			default:
				require.Len(t, res.errs, 1, "byte %d bit %d", i, bit)
				assert.ErrorIs(t, res.errs[0], ErrChecksumMismatch, "byte %d bit %d", i, bit)
			}
		}
	}
}

func TestDecoder_ResyncAfterCorruptFrame(t *testing.T) {
	d := NewDecoder()
	d.SetExpectedSeq(2)

	bad := mustEncode(t, DestBridge, []byte{byte(OpPowerOn)}, 2)
	bad[len(bad)-2] ^= 0xFF
	good := mustEncode(t, DestBridge, []byte{byte(OpPowerOn)}, 2)

	res := feedAll(d, append(bad, good...))
	require.Len(t, res.errs, 1)
	assert.ErrorIs(t, res.errs[0], ErrChecksumMismatch)
	require.Len(t, res.packets, 1)
	assert.Equal(t, []byte{byte(OpPowerOn)}, res.packets[0].Payload)
}

func TestDecoder_Overflow(t *testing.T) {
	d := NewDecoder(WithMaxBufferSize(16))

	// Header declares a 100-byte payload, which can never fit.
	header := []byte{Preamble, 0x01, 0x01, 0x00, 100, 0x00}
	res := feedAll(d, header)
	require.Empty(t, res.errs)
	assert.Equal(t, len(header), d.Buffered())

	var overflow error
	for i := range 11 {
		_, err := d.Feed(byte(i + 1))
		if err != nil {
			overflow = err
		}
	}
	require.ErrorIs(t, overflow, ErrBufferOverflow)
	assert.Equal(t, 0, d.Buffered())

	// Decoder is usable again.
	d.SetExpectedSeq(3)
	res = feedAll(d, mustEncode(t, DestBridge, []byte{byte(OpPowerOff)}, 3))
	require.Empty(t, res.errs)
	require.Len(t, res.packets, 1)
}

func TestDecoder_WithMaxBufferSizeIgnoresTinyValues(t *testing.T) {
	d := NewDecoder(WithMaxBufferSize(2))
	res := feedAll(d, mustEncode(t, DestBridge, []byte{byte(OpGetStatus)}, 0))
	require.Empty(t, res.errs)
	assert.Len(t, res.packets, 1)
}

func TestDecoder_SequenceMismatchIsSoft(t *testing.T) {
	d := NewDecoder()
	d.SetExpectedSeq(10)

	res := feedAll(d, mustEncode(t, DestBridge, []byte{byte(OpGetStatus)}, 11))
	require.Len(t, res.errs, 1)
	assert.ErrorIs(t, res.errs[0], ErrSeqMismatch)
	assert.True(t, IsSoft(res.errs[0]))
	require.Len(t, res.packets, 1, "lenient decoder still delivers the packet")
	assert.Equal(t, Seq(11), res.packets[0].Seq)
}

func TestDecoder_StrictSequence(t *testing.T) {
	d := NewDecoder(WithStrictSequence(true))
	d.SetExpectedSeq(10)

	res := feedAll(d, mustEncode(t, DestBridge, []byte{byte(OpGetStatus)}, 11))
	require.Len(t, res.errs, 1)
	assert.ErrorIs(t, res.errs[0], ErrSeqMismatch)
	assert.Empty(t, res.packets)

	res = feedAll(d, mustEncode(t, DestBridge, []byte{byte(OpGetStatus)}, 10))
	assert.Empty(t, res.errs)
	assert.Len(t, res.packets, 1)
	assert.Equal(t, Seq(10), d.ExpectedSeq())
}

func TestDecoder_BackToBackFrames(t *testing.T) {
	d := NewDecoder()
	d.SetExpectedSeq(1)

	var stream []byte
	for range 5 {
		stream = append(stream, mustEncode(t, DestPeripheral, []byte{byte(OpGetSettings), 0x01}, 1)...)
	}

	res := feedAll(d, stream)
	assert.Empty(t, res.errs)
	assert.Len(t, res.packets, 5)
}
