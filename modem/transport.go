package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"go.bug.st/serial"
)

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

// DefaultBaudRate is used by SerialDialer when neither a Mode nor a BaudRate
// is configured.
const DefaultBaudRate = 115200

// Transport represents an established, bidirectional byte stream to a
// baseband modem.
//
// A Transport is assumed to be already connected and ready for use. It provides
// the low-level I/O primitives required to send AT commands and receive responses.
// Typical implementations include serial ports, TCP connections to emulators,
// or in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a modem.
//
// Dialer abstracts how the modem connection is created (for example, via a
// serial port, TCP-based emulator, or test double). Procedures that reboot
// the device call it again to obtain a fresh Transport once the device has
// come back.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

// SerialDialer opens the modem's USB CDC-ACM port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the serial device path (e.g. "/dev/ttyACM0" or "COM5").
	PortName string
	// BaudRate is used when Mode is nil. Zero means DefaultBaudRate.
	BaudRate int
	// Mode overrides the full line settings.
	Mode *serial.Mode
}

// Dial opens the configured serial port in 8N1 mode.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if d.PortName == "" {
		return nil, ErrPortRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		if portMissing(err) {
			err = fmt.Errorf("%w: %v", ErrPortNotFound, err)
		}
		return nil, &TransportError{Op: "open " + d.PortName, Err: err}
	}
	return port, nil
}

// DialerFunc adapts a plain function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context) (Transport, error) {
	return f(ctx)
}

// portMissing reports whether err means the device node does not exist. The
// Windows backend reports PortNotFound, the unix one the raw ENOENT.
func portMissing(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}
