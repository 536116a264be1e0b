package modem

import "errors"

var (
	// ErrNotInitialized is returned when a Conn is opened without a Transport
	// or used after a failed Open.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when a Conn is used or closed after Close
	// has already been called.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrBusy is returned when a request/response round is started while
	// another one is still in flight on the same Conn.
	//
	// Commands and their reads are never pipelined; callers must wait for
	// the previous Read to return.
	ErrBusy = errors.New("request already in flight")

	// ErrPortRequired is returned by SerialDialer when no port name is set.
	ErrPortRequired = errors.New("modem: serial port name is required")

	// ErrPortNotFound wraps open failures for a device path that does not
	// exist, typically because the phone is still rebooting.
	ErrPortNotFound = errors.New("serial port not found")
)

// TransportError reports an open, write or read failure on the underlying
// byte stream. It is fatal to the procedure that hit it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "transport " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
