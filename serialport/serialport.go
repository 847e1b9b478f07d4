// Package serialport locates and opens the serial port of a TAP-in console.
//
// The console enumerates as a USB CDC device. [Find] picks the first port
// whose USB vendor/product identifiers match, and [Open] opens it with a short
// read timeout so that reads behave as a bounded, non-blocking poll.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// USB identifiers of the TAP-in console.
const (
	DefaultVID = "2CD1"
	DefaultPID = "0001"
)

// Default port settings.
const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 50 * time.Millisecond
)

// ErrPortNotFound indicates that no USB port matches the requested identifiers.
var ErrPortNotFound = errors.New("serialport: no matching port found")

// listPorts and openPort are replaced in tests.
var (
	listPorts = enumerator.GetDetailedPortsList
	openPort  = func(name string, mode *serial.Mode) (rawPort, error) {
		return serial.Open(name, mode)
	}
)

// rawPort is the subset of serial.Port used here.
type rawPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Find returns the name of the first USB serial port with the given vendor
// and product identifiers. Identifiers are hex strings compared without
// regard to case.
func Find(vid, pid string) (string, error) {
	ports, err := listPorts()
	if err != nil {
		return "", fmt.Errorf("serialport: list ports: %w", err)
	}

	for _, p := range ports {
		if p.IsUSB && strings.EqualFold(p.VID, vid) && strings.EqualFold(p.PID, pid) {
			return p.Name, nil
		}
	}

	return "", fmt.Errorf("%w: vid=%s pid=%s", ErrPortNotFound, vid, pid)
}

// Port is an open serial port.
type Port struct {
	name string
	port rawPort
}

// Option is a functional option for Open.
type Option interface {
	apply(*options) error
}

type options struct {
	baudRate    int
	readTimeout time.Duration
}

type optFunc func(*options) error

func (f optFunc) apply(o *options) error { return f(o) }

// WithBaudRate sets the baud rate.
func WithBaudRate(baud int) Option {
	return optFunc(func(o *options) error {
		if baud <= 0 {
			return fmt.Errorf("serialport: invalid baud rate %d", baud)
		}
		o.baudRate = baud

		return nil
	})
}

// WithReadTimeout sets how long a Read waits for data before returning empty.
func WithReadTimeout(d time.Duration) Option {
	return optFunc(func(o *options) error {
		if d <= 0 {
			return errors.New("serialport: read timeout must be positive")
		}
		o.readTimeout = d

		return nil
	})
}

// Open opens the named port as 8N1 and discards any stale input.
func Open(name string, opts ...Option) (*Port, error) {
	o := options{
		baudRate:    DefaultBaudRate,
		readTimeout: DefaultReadTimeout,
	}
	for _, opt := range opts {
		if err := opt.apply(&o); err != nil {
			return nil, err
		}
	}

	mode := &serial.Mode{
		BaudRate: o.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := openPort(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", name, err)
	}

	if err := p.SetReadTimeout(o.readTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("serialport: set read timeout on %s: %w", name, err)
	}

	if err := p.ResetInputBuffer(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("serialport: reset input on %s: %w", name, err)
	}

	return &Port{name: name, port: p}, nil
}

// Name returns the port name.
func (p *Port) Name() string { return p.name }

// Read reads whatever is available, waiting at most the read timeout.
// It returns (0, nil) when nothing arrived.
func (p *Port) Read(b []byte) (int, error) { return p.port.Read(b) }

// Write writes b to the port.
func (p *Port) Write(b []byte) (int, error) { return p.port.Write(b) }

// Close closes the port.
func (p *Port) Close() error { return p.port.Close() }
