package tapin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/arloliu/go-tapin/internal/pool"
	"github.com/arloliu/go-tapin/logger"
)

// Default driver settings.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultReadSize     = 100
)

// Port is the byte transport between the host and the console.
//
// Read must not block for long: it returns whatever is available, possibly
// nothing, within a short read timeout. A read timeout may be reported either
// as (0, nil) or as a timeout error.
type Port interface {
	io.Reader
	io.Writer
}

// Driver runs the poll loop of a Session over a Port.
type Driver struct {
	port    Port
	session *Session
	logger  logger.Logger

	pollInterval time.Duration
	readSize     int
}

// DriverOption is a functional option for configuring a Driver.
type DriverOption interface {
	apply(*Driver) error
}

type driverOptFunc func(*Driver) error

func (f driverOptFunc) apply(d *Driver) error { return f(d) }

// WithPollInterval sets the sleep between two loop iterations.
func WithPollInterval(interval time.Duration) DriverOption {
	return driverOptFunc(func(d *Driver) error {
		if interval < 0 {
			return errors.New("tapin: poll interval must not be negative")
		}
		d.pollInterval = interval

		return nil
	})
}

// WithReadSize sets the maximum number of bytes read per iteration.
func WithReadSize(n int) DriverOption {
	return driverOptFunc(func(d *Driver) error {
		if n < 1 {
			return errors.New("tapin: read size must be >= 1")
		}
		d.readSize = n

		return nil
	})
}

// NewDriver creates a Driver for session over port. The session must write
// its commands to the same port.
func NewDriver(port Port, session *Session, opts ...DriverOption) (*Driver, error) {
	if port == nil {
		return nil, errors.New("tapin: port is nil")
	}
	if session == nil {
		return nil, errors.New("tapin: session is nil")
	}

	d := &Driver{
		port:         port,
		session:      session,
		logger:       session.logger,
		pollInterval: DefaultPollInterval,
		readSize:     DefaultReadSize,
	}

	for _, opt := range opts {
		if err := opt.apply(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Run starts the session if needed and polls until the session is done,
// ctx is cancelled, or the transport fails.
//
// It returns nil once the lens has been powered off.
func (d *Driver) Run(ctx context.Context) error {
	if d.session.State() == InvalidState {
		if err := d.session.Start(); err != nil {
			return err
		}
	}

	buf := make([]byte, d.readSize)

	for {
		if err := d.Poll(buf); err != nil {
			return err
		}

		if d.session.Done() {
			return nil
		}

		if err := pool.Sleep(ctx, d.pollInterval); err != nil {
			return err
		}
	}
}

// Poll runs one loop iteration: read available bytes into buf, feed them to
// the session, then re-issue the pending command if the session timed out.
func (d *Driver) Poll(buf []byte) error {
	n, err := d.port.Read(buf)
	if n > 0 {
		if ferr := d.session.FeedBytes(buf[:n]); ferr != nil {
			return ferr
		}
	}

	if err != nil && !isTimeout(err) {
		d.logger.Error("tapin: port read failed", "error", err)
		return fmt.Errorf("tapin: read port: %w", err)
	}

	return d.session.CheckTimeout()
}

// isTimeout reports whether err is a read deadline expiry.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
