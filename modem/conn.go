package modem

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"widtech.dev/atfrp/at"
)

const (
	// readBufferSize is the size of a single transport read.
	readBufferSize = 4096
	// chunkBacklog bounds how many unread chunks are held between rounds.
	chunkBacklog = 64
)

// Conn is the connection handle a procedure borrows for its request/response
// rounds. It owns exactly one Transport.
//
// A Conn serializes rounds: only one Send or Read may be in progress at a
// time, concurrent calls fail with ErrBusy. Once the device reboots the Conn
// must be closed and a new one opened over a freshly dialed Transport.
type Conn struct {
	// transport provides the physical connection to the modem (serial, TCP, etc.)
	transport Transport
	// logger receives per-round diagnostics
	logger *slog.Logger

	// chunks carries data read by the pump goroutine
	chunks chan []byte
	// readErr is the error that ended the stream. It is set before chunks is
	// closed and never cleared.
	readErr atomic.Pointer[error]
	// done is closed by Close to stop the pump
	done chan struct{}

	pumpOnce sync.Once
	busy     atomic.Bool
	closed   atomic.Bool
}

// Open wraps an established Transport into a Conn. A nil logger discards
// diagnostics.
func Open(transport Transport, logger *slog.Logger) (*Conn, error) {
	if transport == nil {
		return nil, ErrNotInitialized
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Conn{
		transport: transport,
		logger:    logger,
		chunks:    make(chan []byte, chunkBacklog),
		done:      make(chan struct{}),
	}, nil
}

// Send writes cmd, including its terminator, to the transport.
func (c *Conn) Send(cmd at.Command) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.busy.Store(false)

	wire := cmd.Wire()
	if _, err := c.transport.Write(wire); err != nil {
		return &TransportError{Op: fmt.Sprintf("write %q", cmd.Text), Err: err}
	}
	c.logger.Debug("command sent", "command", cmd.Text, "bytes", len(wire))
	return nil
}

// Read collects response text until timeout elapses or the stream ends.
//
// The timeout is a ceiling on the whole round, it is not reset when data
// arrives. Reaching it is the normal way a round ends and is not an error;
// the text gathered so far, possibly empty, is returned. A transport read
// failure fails the round and no partial text is returned. Once the transport
// has failed every later round fails the same way.
func (c *Conn) Read(timeout time.Duration) (string, error) {
	if err := c.acquire(); err != nil {
		return "", err
	}
	defer c.busy.Store(false)

	c.pumpOnce.Do(func() { go c.pump() })

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var sb strings.Builder
	for {
		select {
		case <-timer.C:
			c.logRound(sb.String(), "timeout")
			return sb.String(), nil

		case data, ok := <-c.chunks:
			if !ok {
				if err := c.readErr.Load(); err != nil {
					return "", &TransportError{Op: "read", Err: *err}
				}
				c.logRound(sb.String(), "end of stream")
				return sb.String(), nil
			}
			sb.Write(data)
		}
	}
}

// Exchange sends cmd and reads its response within timeout.
func (c *Conn) Exchange(cmd at.Command, timeout time.Duration) (string, error) {
	if err := c.Send(cmd); err != nil {
		return "", err
	}
	return c.Read(timeout)
}

// Close stops the reader and closes the underlying transport. After calling
// Close the Conn cannot be reused.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}
	close(c.done)
	return c.transport.Close()
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

func (c *Conn) acquire() error {
	if c.closed.Load() {
		return ErrAlreadyClosed
	}
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

// pump is the only goroutine that reads from the transport. It runs until the
// stream ends, fails, or the Conn is closed.
func (c *Conn) pump() {
	defer close(c.chunks)

	buf := make([]byte, readBufferSize)
	for {
		n, err := c.transport.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !c.deliver(data) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.readErr.Store(&err)
			}
			return
		}
	}
}

func (c *Conn) deliver(data []byte) bool {
	select {
	case c.chunks <- data:
		return true
	case <-c.done:
		return false
	}
}

func (c *Conn) logRound(text, reason string) {
	c.logger.Debug("response collected",
		"bytes", len(text),
		"result", at.Result(text),
		"reason", reason,
	)
}
