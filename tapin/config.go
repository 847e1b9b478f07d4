package tapin

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-tapin/frame"
	"github.com/arloliu/go-tapin/logger"
)

// Default session settings.
const (
	DefaultTimeout       = 3 * time.Second // no-response timeout before a command is re-issued
	DefaultRetryLimit    = 0               // 0 = retry forever
	DefaultMaxBufferSize = frame.DefaultMaxBufferSize
)

// Setting range limits.
const (
	MinTimeout = 100 * time.Millisecond
	MaxTimeout = 60 * time.Second

	MaxRetryLimit = 1000

	MinMaxBufferSize = 16
	MaxMaxBufferSize = frame.HeaderSize + frame.MaxPayloadSize + frame.TrailerSize
)

// SessionConfig holds all configuration for a Session.
type SessionConfig struct {
	timeout       time.Duration
	retryLimit    int
	maxBufferSize int

	// loopMode routes GettingLensSetting to LoopingLensStatus instead of
	// powering the lens off.
	loopMode bool

	// strictSequence drops replies that do not echo the last sent sequence number.
	strictSequence bool

	// packetTrace logs every written and received frame as hex at debug level.
	packetTrace bool

	clock  func() time.Time
	logger logger.Logger
}

// NewSessionConfig creates a new session configuration.
//
// opts are functional options applied in order; see With* functions.
func NewSessionConfig(opts ...SessionOption) (*SessionConfig, error) {
	cfg := &SessionConfig{
		timeout:       DefaultTimeout,
		retryLimit:    DefaultRetryLimit,
		maxBufferSize: DefaultMaxBufferSize,
		clock:         time.Now,
		logger:        logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// Timeout returns the no-response timeout.
func (cfg *SessionConfig) Timeout() time.Duration { return cfg.timeout }

// RetryLimit returns the maximum number of consecutive re-issues of one
// command. Zero means unbounded.
func (cfg *SessionConfig) RetryLimit() int { return cfg.retryLimit }

// MaxBufferSize returns the receive buffer limit in bytes.
func (cfg *SessionConfig) MaxBufferSize() int { return cfg.maxBufferSize }

// LoopMode returns whether the session keeps polling the lens status.
func (cfg *SessionConfig) LoopMode() bool { return cfg.loopMode }

// StrictSequence returns whether replies with a mismatching sequence number are dropped.
func (cfg *SessionConfig) StrictSequence() bool { return cfg.strictSequence }

// PacketTrace returns whether frames are traced at debug level.
func (cfg *SessionConfig) PacketTrace() bool { return cfg.packetTrace }

// GetLogger returns the configured logger.
func (cfg *SessionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- SessionOption ---

// SessionOption is a functional option for configuring a SessionConfig.
type SessionOption interface {
	apply(*SessionConfig) error
}

type sessionOptFunc func(*SessionConfig) error

func (f sessionOptFunc) apply(cfg *SessionConfig) error { return f(cfg) }

// WithTimeout sets the no-response timeout, 100ms to 60s.
func WithTimeout(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d < MinTimeout || d > MaxTimeout {
			return fmt.Errorf("tapin: timeout %v out of range [%v, %v]", d, MinTimeout, MaxTimeout)
		}
		cfg.timeout = d

		return nil
	})
}

// WithRetryLimit caps the number of consecutive re-issues of the same
// command, 0 to 1000. Zero, the default, retries forever.
func WithRetryLimit(n int) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if n < 0 || n > MaxRetryLimit {
			return fmt.Errorf("tapin: retry limit %d out of range [0, %d]", n, MaxRetryLimit)
		}
		cfg.retryLimit = n

		return nil
	})
}

// WithMaxBufferSize sets the receive buffer limit.
func WithMaxBufferSize(n int) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if n < MinMaxBufferSize || n > MaxMaxBufferSize {
			return fmt.Errorf("tapin: max buffer size %d out of range [%d, %d]", n, MinMaxBufferSize, MaxMaxBufferSize)
		}
		cfg.maxBufferSize = n

		return nil
	})
}

// WithLoopMode enables continuous lens status polling after the settings
// query, instead of powering the lens off. Disabled by default.
func WithLoopMode(enabled bool) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		cfg.loopMode = enabled

		return nil
	})
}

// WithStrictSequence drops replies whose sequence number does not echo the
// last sent command. Disabled by default: mismatches are only logged.
func WithStrictSequence(enabled bool) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		cfg.strictSequence = enabled

		return nil
	})
}

// WithPacketTrace enables hex traces of every frame at debug level.
func WithPacketTrace(enabled bool) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		cfg.packetTrace = enabled

		return nil
	})
}

// WithClock sets the time source used for timeout bookkeeping.
func WithClock(clock func() time.Time) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if clock == nil {
			return errors.New("tapin: clock must not be nil")
		}
		cfg.clock = clock

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if l == nil {
			return errors.New("tapin: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
