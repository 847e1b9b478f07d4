package tapin

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-tapin/frame"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestSession creates a session writing into a buffer, driven by a fake clock.
func newTestSession(t *testing.T, opts ...SessionOption) (*Session, *bytes.Buffer, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	cfg, err := NewSessionConfig(append([]SessionOption{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)

	var w bytes.Buffer
	s, err := NewSession(&w, cfg)
	require.NoError(t, err)

	return s, &w, clock
}

// popWritten parses and removes every frame written into w.
func popWritten(t *testing.T, w *bytes.Buffer) []*frame.Packet {
	t.Helper()

	var pkts []*frame.Packet
	data := w.Bytes()
	for len(data) > 0 {
		require.GreaterOrEqual(t, len(data), frame.HeaderSize, "truncated frame")
		size := frame.HeaderSize + (int(data[4]) | int(data[5])<<8) + frame.TrailerSize
		require.GreaterOrEqual(t, len(data), size, "truncated frame")

		pkt, err := frame.ParsePacket(data[:size])
		require.NoError(t, err)
		pkts = append(pkts, pkt)
		data = data[size:]
	}
	w.Reset()

	return pkts
}

// popOne parses the single frame written into w.
func popOne(t *testing.T, w *bytes.Buffer) *frame.Packet {
	t.Helper()

	pkts := popWritten(t, w)
	require.Len(t, pkts, 1)

	return pkts[0]
}

// reply feeds a reply frame echoing the last sent sequence number.
func reply(t *testing.T, s *Session, dest frame.Destination, payload ...byte) {
	t.Helper()

	replySeq(t, s, dest, s.LastSentSeq(), payload...)
}

// replySeq feeds a reply frame carrying seq.
func replySeq(t *testing.T, s *Session, dest frame.Destination, seq frame.Seq, payload ...byte) {
	t.Helper()

	data, err := frame.Encode(dest, payload, seq)
	require.NoError(t, err)
	require.NoError(t, s.FeedBytes(data))
}

// lensStatusPayload builds a lens GET_STATUS reply carrying model.
func lensStatusPayload(model string) []byte {
	p := make([]byte, 32)
	p[0] = byte(frame.OpGetStatus)
	p[1], p[2], p[3] = 0x01, 0x02, 0x03
	copy(p[lensModelOffset:lensModelOffset+lensModelLength], model)
	p[24] = 0x55

	return p
}

// successReply returns the reply that moves state forward.
func successReply(state State) (frame.Destination, []byte) {
	switch state {
	case GettingConsoleStatus:
		return frame.DestBridge, []byte{byte(frame.OpGetStatus), 0x01}
	case WaitingForLensAttachment:
		return frame.DestBridge, []byte{byte(frame.OpIsAttached), 0x01}
	case PoweringOnLens:
		return frame.DestBridge, []byte{byte(frame.OpPowerOn), 0x00}
	case GettingLensStatus, LoopingLensStatus:
		return frame.DestPeripheral, lensStatusPayload("A025")
	case GettingLensSetting:
		return frame.DestPeripheral, []byte{byte(frame.OpGetSettings), 0x01, 0x02}
	case PoweringOffLens:
		return frame.DestBridge, []byte{byte(frame.OpPowerOff), 0x00}
	default:
		return frame.DestBridge, nil
	}
}

// driveTo starts s and feeds success replies until it reaches target.
func driveTo(t *testing.T, s *Session, w *bytes.Buffer, target State) {
	t.Helper()

	require.NoError(t, s.Start())
	for i := 0; s.State() != target; i++ {
		require.Less(t, i, len(States), "target %s not reached", target)
		dest, payload := successReply(s.State())
		reply(t, s, dest, payload...)
	}
	w.Reset()
}

// fakeConsole is an in-memory console and lens answering every command.
type fakeConsole struct {
	t        *testing.T
	rx       bytes.Buffer
	written  []*frame.Packet
	attached bool
	model    string
	silent   map[frame.Opcode]int // number of commands to leave unanswered, per opcode
	readErr  error
	writeErr error
}

func newFakeConsole(t *testing.T) *fakeConsole {
	return &fakeConsole{t: t, attached: true, model: "B016", silent: map[frame.Opcode]int{}}
}

func (c *fakeConsole) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}

	pkt, err := frame.ParsePacket(p)
	require.NoError(c.t, err)
	c.written = append(c.written, pkt)

	op, _ := pkt.Opcode()
	if c.silent[op] > 0 {
		c.silent[op]--
		return len(p), nil
	}

	var payload []byte
	switch op {
	case frame.OpGetStatus:
		if pkt.Dest == frame.DestPeripheral {
			payload = lensStatusPayload(c.model)
		} else {
			payload = []byte{byte(frame.OpGetStatus), 0x01}
		}
	case frame.OpIsAttached:
		attached := byte(0)
		if c.attached {
			attached = 1
		}
		payload = []byte{byte(frame.OpIsAttached), attached}
	case frame.OpPowerOn:
		payload = []byte{byte(frame.OpPowerOn), 0x00}
	case frame.OpGetSettings:
		payload = []byte{byte(frame.OpGetSettings), 0x10, 0x20}
	case frame.OpPowerOff:
		payload = []byte{byte(frame.OpPowerOff), 0x00}
	default:
		payload = []byte{byte(frame.OpError)}
	}

	data, err := frame.Encode(pkt.Dest, payload, pkt.Seq)
	require.NoError(c.t, err)
	c.rx.Write(data)

	return len(p), nil
}

func (c *fakeConsole) Read(p []byte) (int, error) {
	if c.readErr != nil {
		return 0, c.readErr
	}
	if c.rx.Len() == 0 {
		return 0, nil
	}

	return c.rx.Read(p)
}

// errWriter fails every write.
type errWriter struct{}

var errBrokenPipe = errors.New("broken pipe")

func (errWriter) Write(_ []byte) (int, error) { return 0, errBrokenPipe }
