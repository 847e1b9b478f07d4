package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// feedResult collects the outputs of feeding a byte slice to a decoder.
type feedResult struct {
	packets []*Packet
	errs    []error
}

// feedAll feeds every byte of data to d and collects what it emits.
func feedAll(d *Decoder, data []byte) feedResult {
	var res feedResult
	for _, b := range data {
		pkt, err := d.Feed(b)
		if pkt != nil {
			res.packets = append(res.packets, pkt)
		}
		if err != nil {
			res.errs = append(res.errs, err)
		}
	}

	return res
}

// mustEncode encodes a packet, failing the test on error.
func mustEncode(t *testing.T, dest Destination, payload []byte, seq Seq) []byte {
	t.Helper()

	data, err := Encode(dest, payload, seq)
	require.NoError(t, err)

	return data
}
