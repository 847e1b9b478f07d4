package tapin

import "sync/atomic"

// SessionMetrics contains atomic counters for a session.
// Metrics can be used as the value of a prometheus CounterFunc.
type SessionMetrics struct {
	// FrameSendCount indicates the number of command frames written.
	FrameSendCount atomic.Uint64
	// FrameRecvCount indicates the number of valid frames received.
	FrameRecvCount atomic.Uint64
	// FrameErrCount indicates the number of frames rejected by the decoder.
	FrameErrCount atomic.Uint64
	// SeqMismatchCount indicates the number of frames that did not echo the
	// last sent sequence number.
	SeqMismatchCount atomic.Uint64
	// OverflowCount indicates the number of receive buffer flushes.
	OverflowCount atomic.Uint64
	// RetryCount indicates the number of commands re-issued after a timeout.
	RetryCount atomic.Uint64
	// UnexpectedCount indicates the number of replies ignored in the current state.
	UnexpectedCount atomic.Uint64
	// DeviceErrCount indicates the number of ERROR replies.
	DeviceErrCount atomic.Uint64
}

func (m *SessionMetrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *SessionMetrics) incFrameRecvCount() {
	m.FrameRecvCount.Add(1)
}

func (m *SessionMetrics) incFrameErrCount() {
	m.FrameErrCount.Add(1)
}

func (m *SessionMetrics) incSeqMismatchCount() {
	m.SeqMismatchCount.Add(1)
}

func (m *SessionMetrics) incOverflowCount() {
	m.OverflowCount.Add(1)
}

func (m *SessionMetrics) incRetryCount() {
	m.RetryCount.Add(1)
}

func (m *SessionMetrics) incUnexpectedCount() {
	m.UnexpectedCount.Add(1)
}

func (m *SessionMetrics) incDeviceErrCount() {
	m.DeviceErrCount.Add(1)
}
