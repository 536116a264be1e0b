package modem

import (
	"io"
	"sync"

	"widtech.dev/atfrp/at"
)

// TestTransport is a test helper that simulates a blocking transport using channels.
// Reads block until data is queued (like a real serial port would), and writes
// of scripted commands queue their canned replies, so a TestTransport behaves
// like a minimal fake modem.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan readResult
	closed   bool
	writes   []string
	replies  map[string]string
	writeErr error
}

type readResult struct {
	data []byte
	err  error
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan readResult, 64),
		replies:  make(map[string]string),
	}
}

// Reply scripts response to be queued whenever cmd is written.
func (t *TestTransport) Reply(cmd at.Command, response string) *TestTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[string(cmd.Wire())] = response
	return t
}

// FailWrites makes every subsequent Write return err.
func (t *TestTransport) FailWrites(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	wire := string(p)
	t.writes = append(t.writes, wire)
	if resp, ok := t.replies[wire]; ok && resp != "" {
		t.readChan <- readResult{data: []byte(resp)}
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	r, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	if r.err != nil {
		return 0, r.err
	}
	return copy(p, r.data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- readResult{data: []byte(data)}
	}
}

// SendError makes the next Read fail with err.
func (t *TestTransport) SendError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- readResult{err: err}
	}
}

// Writes returns everything written so far, one entry per Write call.
func (t *TestTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}

// Closed reports whether Close has been called.
func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
