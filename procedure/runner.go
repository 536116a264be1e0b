// Package procedure implements the named device operations: single-round
// queries, the FRP check and reset, debug mode and reboots.
//
// A Runner holds no connection state. Every operation borrows the handle it
// is given, and operations that reboot the device hand back a fresh one.
// Output for the operator goes to the configured console.Sink; diagnostics go
// to the slog logger.
package procedure

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"widtech.dev/atfrp/at"
	"widtech.dev/atfrp/console"
	"widtech.dev/atfrp/modem"
)

type Runner struct {
	dialer    modem.Dialer
	sink      console.Sink
	confirmer console.Confirmer
	timing    Timing
	logger    *slog.Logger
	sleep     Sleeper
	carriers  []string
}

// NewRunner validates cfg and fills in defaults for anything left unset.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	return &Runner{
		dialer:    cfg.Dialer,
		sink:      cfg.Sink,
		confirmer: cfg.Confirmer,
		timing:    cfg.Timing,
		logger:    cfg.Logger,
		sleep:     cfg.Sleeper,
		carriers:  cfg.Carriers,
	}, nil
}

// Timing returns the delays and read windows in effect.
func (r *Runner) Timing() Timing {
	return r.timing
}

// Connect dials the device and wraps the transport in a new handle.
func (r *Runner) Connect(ctx context.Context) (*modem.Conn, error) {
	log := r.begin("connect")
	conn, err := r.connect(ctx, log)
	if err != nil {
		r.sink.Emit("Serial Connection Failed: "+err.Error(), console.StyleError, true)
		log.Error("connect failed", "error", err)
		return nil, err
	}
	return conn, nil
}

func (r *Runner) connect(ctx context.Context, log *slog.Logger) (*modem.Conn, error) {
	r.sink.Emit("- Connecting: ", console.StyleNeutral, false)

	transport, err := r.dialer.Dial(ctx)
	if err != nil {
		r.sink.Emit("", console.StyleNeutral, true)
		return nil, err
	}
	conn, err := modem.Open(transport, log.With("component", "conn"))
	if err != nil {
		_ = transport.Close()
		r.sink.Emit("", console.StyleNeutral, true)
		return nil, err
	}

	r.sink.Emit("[OK]", console.StyleSuccess, true)
	return conn, nil
}

// begin tags the diagnostics of one procedure run.
func (r *Runner) begin(name string) *slog.Logger {
	log := r.logger.With("procedure", name, "run", uuid.NewString())
	log.Debug("procedure started")
	return log
}

// fail reports err to the operator and returns it unchanged.
func (r *Runner) fail(log *slog.Logger, err error) error {
	r.sink.Emit("Error: "+err.Error(), console.StyleError, true)
	log.Error("procedure failed", "error", err)
	return err
}

func (r *Runner) notConnected(log *slog.Logger) error {
	r.sink.Emit("No device connected.", console.StyleError, true)
	log.Warn("procedure skipped", "error", ErrNotConnected)
	return ErrNotConnected
}

// send writes cmd and waits settle afterwards.
func (r *Runner) send(conn *modem.Conn, cmd at.Command, settle time.Duration) error {
	if err := conn.Send(cmd); err != nil {
		return err
	}
	if settle > 0 {
		r.sleep(settle)
	}
	return nil
}

// settled sends each command followed by the regular settle delay.
func (r *Runner) settled(conn *modem.Conn, cmds ...at.Command) error {
	for _, cmd := range cmds {
		if err := r.send(conn, cmd, r.timing.Settle); err != nil {
			return err
		}
	}
	return nil
}

// spaced sends cmds with the regular settle delay between them but not after
// the last one.
func (r *Runner) spaced(conn *modem.Conn, cmds ...at.Command) error {
	for i, cmd := range cmds {
		if i > 0 {
			r.sleep(r.timing.Settle)
		}
		if err := conn.Send(cmd); err != nil {
			return err
		}
	}
	return nil
}

// closeConn releases a handle the device is about to invalidate.
func (r *Runner) closeConn(log *slog.Logger, conn *modem.Conn) {
	if err := conn.Close(); err != nil {
		log.Debug("close connection", "error", err)
	}
}
