package tapin

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/arloliu/go-tapin/frame"
	"github.com/arloliu/go-tapin/internal/util"
	"github.com/arloliu/go-tapin/logger"
)

// Location of the model identifier in a lens GET_STATUS reply.
const (
	lensModelOffset = 4
	lensModelLength = 16
)

// LensInfo holds the attributes decoded from a lens status reply.
type LensInfo struct {
	// Model is the lens model code, e.g. "A025".
	Model string
	// Status is a copy of the raw status payload, opcode included.
	Status []byte
}

// decodeLensInfo extracts the lens attributes from a GET_STATUS payload.
// It returns false when the payload is too short to carry the model window.
func decodeLensInfo(payload []byte) (LensInfo, bool) {
	if len(payload) < lensModelOffset+lensModelLength {
		return LensInfo{}, false
	}

	return LensInfo{
		Model:  util.CString(payload[lensModelOffset : lensModelOffset+lensModelLength]),
		Status: util.CloneSlice(payload, 0),
	}, true
}

// StateChangeHandler is invoked when the session moves to a different state.
// Handlers run synchronously inside the control loop and must not block.
type StateChangeHandler func(s *Session, prevState State, newState State)

// Session is the command/response state machine for one console and lens.
//
// It encodes and writes the command of every state it enters, and interprets
// the payloads decoded from the bytes passed to Feed.
//
// Session is NOT goroutine-safe; it is owned by a single control loop.
type Session struct {
	cfg     *SessionConfig
	logger  logger.Logger
	w       io.Writer
	decoder *frame.Decoder

	state   State
	nextSeq frame.Seq
	lastSeq frame.Seq
	lastRx  time.Time
	retries int
	done    bool

	lens    LensInfo
	hasLens bool

	handlers []StateChangeHandler
	metrics  SessionMetrics
}

// NewSession creates a Session writing its commands to w.
func NewSession(w io.Writer, cfg *SessionConfig) (*Session, error) {
	if w == nil {
		return nil, ErrWriterNil
	}
	if cfg == nil {
		return nil, ErrConfigNil
	}

	return &Session{
		cfg:    cfg,
		logger: cfg.logger,
		w:      w,
		decoder: frame.NewDecoder(
			frame.WithMaxBufferSize(cfg.maxBufferSize),
			frame.WithStrictSequence(cfg.strictSequence),
		),
		state:   InvalidState,
		nextSeq: frame.SeqFirst,
		lastSeq: frame.SeqUnset,
	}, nil
}

// AddStateChangeHandler adds handlers invoked on every state change.
// Re-issuing the command of the current state is not a state change.
//
// Handlers should be registered before Start is called.
func (s *Session) AddStateChangeHandler(handlers ...StateChangeHandler) {
	s.handlers = append(s.handlers, handlers...)
}

// Start enters GettingConsoleStatus and issues its command.
func (s *Session) Start() error {
	s.lastRx = s.cfg.clock()

	return s.advance(GettingConsoleStatus)
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Done reports whether the session reached PoweringOffLens and the console
// acknowledged the power-off command.
func (s *Session) Done() bool {
	return s.done
}

// Attributes returns the lens attributes decoded from the last lens status
// reply, or false if none has been decoded yet.
func (s *Session) Attributes() (LensInfo, bool) {
	return s.lens, s.hasLens
}

// LastSentSeq returns the sequence number of the last command written.
func (s *Session) LastSentSeq() frame.Seq {
	return s.lastSeq
}

// LastReceived returns the time the last byte was fed.
func (s *Session) LastReceived() time.Time {
	return s.lastRx
}

// Metrics returns the session counters.
func (s *Session) Metrics() *SessionMetrics {
	return &s.metrics
}

// Config returns the session configuration.
func (s *Session) Config() *SessionConfig {
	return s.cfg
}

// --- Input ---

// FeedBytes feeds every byte of p. It stops at the first write error.
func (s *Session) FeedBytes(p []byte) error {
	for _, b := range p {
		if err := s.Feed(b); err != nil {
			return err
		}
	}

	return nil
}

// Feed consumes one received byte.
//
// Framing errors are logged and counted; they never surface as errors.
// The returned error is non-nil only when writing the next command fails.
func (s *Session) Feed(b byte) error {
	s.lastRx = s.cfg.clock()

	pkt, err := s.decoder.Feed(b)
	if err != nil {
		s.onDecodeError(err)
	}
	if pkt == nil {
		return nil
	}

	s.metrics.incFrameRecvCount()
	if s.cfg.packetTrace {
		if raw, err := pkt.Pack(); err == nil {
			s.logger.Debug("tapin: frame received", "seq", pkt.Seq, "dest", pkt.Dest, "data", util.FormatHex(raw))
		}
	}

	return s.HandlePayload(pkt.Dest, pkt.Payload)
}

func (s *Session) onDecodeError(err error) {
	switch {
	case errors.Is(err, frame.ErrSeqMismatch):
		s.metrics.incSeqMismatchCount()
		s.logger.Debug("tapin: out of order reply", "state", s.state, "error", err)

	case errors.Is(err, frame.ErrBufferOverflow):
		s.metrics.incOverflowCount()
		s.logger.Debug("tapin: flushed receive buffer", "error", err)

	case errors.Is(err, frame.ErrBadPreamble):
		s.metrics.incFrameErrCount()
		s.logger.Error("tapin: decoder invariant violated", "error", err)

	default:
		s.metrics.incFrameErrCount()
		s.logger.Debug("tapin: dropped corrupt frame", "error", err)
	}
}

// HandlePayload interprets a validated payload against the current state.
//
// An ERROR reply forces PoweringOffLens. A reply that the current state does
// not expect is logged and ignored.
func (s *Session) HandlePayload(dest frame.Destination, payload []byte) error {
	if len(payload) == 0 {
		s.logger.Debug("tapin: empty payload ignored", "state", s.state, "dest", dest)
		return nil
	}

	if s.state == InvalidState {
		return ErrNotStarted
	}

	if s.done {
		s.logger.Debug("tapin: reply after power-off ignored", "dest", dest, "payload", util.FormatHex(payload))
		return nil
	}

	op := frame.Opcode(payload[0])

	rule, ok := replyTable[s.state]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidState, s.state)
	}

	if op == rule.expect {
		return rule.handle(s, payload)
	}

	if op == frame.OpError {
		s.metrics.incDeviceErrCount()
		s.logger.Warn("tapin: device reported an error, powering off",
			"state", s.state,
			"dest", dest,
			"payload", util.FormatHex(payload),
		)

		return s.advance(PoweringOffLens)
	}

	s.metrics.incUnexpectedCount()
	s.logger.Debug("tapin: unexpected reply",
		"state", s.state,
		"expected", rule.expect,
		"got", op,
		"dest", dest,
		"payload", util.FormatHex(payload),
	)

	return nil
}

func (s *Session) onAttachedReply(payload []byte) error {
	if len(payload) < 2 {
		s.logger.Debug("tapin: is-attached reply too short", "payload", util.FormatHex(payload))
		return nil
	}

	if payload[1] == 0 {
		s.logger.Debug("tapin: waiting for lens attachment")
		return nil
	}

	return s.advance(PoweringOnLens)
}

func (s *Session) onLensStatusReply(payload []byte) error {
	if info, ok := decodeLensInfo(payload); ok {
		s.lens, s.hasLens = info, true
		s.logger.Info("tapin: lens identified", "model", info.Model)
	} else {
		s.logger.Debug("tapin: lens status too short to decode", "len", len(payload))
	}

	return s.advance(GettingLensSetting)
}

func (s *Session) onPowerOffReply(_ []byte) error {
	s.done = true
	s.logger.Info("tapin: lens powered off")

	return nil
}

// --- Timeout ---

// TimedOut reports whether more than the configured timeout has passed
// between the last received byte and now.
func (s *Session) TimedOut(now time.Time) bool {
	if s.state == InvalidState || s.done {
		return false
	}

	return now.Sub(s.lastRx) > s.cfg.timeout
}

// CheckTimeout calls HandleTimeout if the session timed out.
func (s *Session) CheckTimeout() error {
	if !s.TimedOut(s.cfg.clock()) {
		return nil
	}

	return s.HandleTimeout()
}

// HandleTimeout re-issues the command of the current state with the next
// sequence number and restarts the receive timer. It does nothing once the
// session is done.
func (s *Session) HandleTimeout() error {
	if s.state == InvalidState {
		return ErrNotStarted
	}
	if s.done {
		return nil
	}

	if s.cfg.retryLimit > 0 && s.retries >= s.cfg.retryLimit {
		return fmt.Errorf("%w: %s after %d retries", ErrRetryLimitExceeded, s.state, s.retries)
	}

	s.retries++
	s.metrics.incRetryCount()
	s.lastRx = s.cfg.clock()

	s.logger.Warn("tapin: no response, re-issuing command",
		"state", s.state,
		"retry", s.retries,
		"lastSeq", s.lastSeq,
	)

	return s.enter(s.state)
}

// --- Transitions ---

// advance enters state as a result of progress, resetting the retry counter.
func (s *Session) advance(state State) error {
	s.retries = 0

	return s.enter(state)
}

// enter switches to state and issues its command.
func (s *Session) enter(state State) error {
	cmd, ok := commandTable[state]
	if !ok {
		s.logger.Error("tapin: bad state change, restarting", "state", state)
		s.setState(GettingConsoleStatus)

		return fmt.Errorf("%w: %s", ErrInvalidState, state)
	}

	s.done = false
	s.setState(state)

	return s.send(cmd)
}

func (s *Session) setState(state State) {
	prev := s.state
	s.state = state
	if prev == state {
		return
	}

	s.logger.Debug("tapin: state changed", "prevState", prev, "newState", state)
	for _, h := range s.handlers {
		h(s, prev, state)
	}
}

// send encodes cmd with the next sequence number and writes it.
func (s *Session) send(cmd command) error {
	seq := s.nextSeq

	data, err := frame.Encode(cmd.dest, cmd.payload(), seq)
	if err != nil {
		return err
	}

	s.lastSeq = seq
	s.nextSeq = seq.Next()
	s.decoder.SetExpectedSeq(seq)

	if s.cfg.packetTrace {
		s.logger.Debug("tapin: frame written", "seq", seq, "dest", cmd.dest, "data", util.FormatHex(data))
	}

	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("tapin: write %s to %s: %w", cmd.op, cmd.dest, err)
	}
	s.metrics.incFrameSendCount()

	return nil
}
