package procedure

import (
	"context"
	"fmt"
	"log/slog"

	"widtech.dev/atfrp/at"
	"widtech.dev/atfrp/console"
	"widtech.dev/atfrp/modem"
	"widtech.dev/atfrp/parse"
)

// Step is a state of the FRP reset.
type Step int

const (
	StepConfigure1 Step = iota
	StepReboot
	StepReconnect
	StepConfigure2
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepConfigure1:
		return "step 1"
	case StepReboot:
		return "reboot"
	case StepReconnect:
		return "reconnect"
	case StepConfigure2:
		return "step 2"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// diagnosticMode switches the modem into the mode that accepts protected
// commands.
var diagnosticMode = []at.Command{at.CmdWatchdogOff, at.CmdActivate, at.CmdWatchdogOn}

// CheckFRP reads the factory reset protection status.
//
// A status outside the known set is reported as a failure with
// ErrProtocolMismatch, it is never guessed.
func (r *Runner) CheckFRP(ctx context.Context, conn *modem.Conn) (parse.FRPStatus, error) {
	log, err := r.start(ctx, "frp-check", conn)
	if err != nil {
		return parse.FRPUnknown, err
	}

	r.sink.Emit("- Setting ATD: ", console.StyleNeutral, false)
	if err := r.settled(conn, diagnosticMode...); err != nil {
		r.sink.Emit("", console.StyleNeutral, true)
		return parse.FRPUnknown, r.fail(log, err)
	}
	r.sink.Emit("[OK]", console.StyleSuccess, true)

	r.sink.Emit("- FRP Status: ", console.StyleNeutral, false)
	text, err := conn.Exchange(at.CmdFRPStatus, r.timing.FRPStatusWindow)
	if err != nil {
		r.sink.Emit("", console.StyleNeutral, true)
		return parse.FRPUnknown, r.fail(log, err)
	}

	status, ok := parse.ParseFRPStatus(text)
	if !ok {
		r.sink.Emit(" FRP Status: FAIL N/A", console.StyleError, true)
		log.Warn("unrecognized frp status", "bytes", len(text), "result", at.Result(text))
		return parse.FRPUnknown, ErrProtocolMismatch
	}

	style := console.StyleNeutral
	if status.Critical() {
		style = console.StyleCritical
	}
	r.sink.Emit(status.String(), style, true)
	log.Info("frp status", "status", status)
	return status, nil
}

// ResetFRP clears factory reset protection using the two-carrier sequence:
// configure with the first carrier, reboot, reconnect, then configure with
// the second carrier over the new connection.
//
// conn is closed once the reboot command has been sent. The returned handle
// is the one the caller must use from then on: the original handle when the
// reset failed before the reboot, the new one afterwards, and nil when the
// device could not be reached again.
func (r *Runner) ResetFRP(ctx context.Context, conn *modem.Conn) (*modem.Conn, error) {
	log, err := r.start(ctx, "frp-reset", conn)
	if err != nil {
		return conn, err
	}

	r.sink.Emit("- Starting FRP Reset (USA)...", console.StyleNeutral, true)

	step := StepConfigure1
	failed := func(c *modem.Conn, err error) (*modem.Conn, error) {
		return c, r.failStep(log, step, err)
	}

	r.sink.Emit("- Processing step 1...", console.StyleNeutral, true)
	if err := r.configure(conn, r.carriers[0]); err != nil {
		return failed(conn, err)
	}
	r.sink.Emit("- Processing step 1... [OK]", console.StyleSuccess, true)

	step = StepReboot
	log.Info("entering step", "step", step)
	r.sink.Emit("- Restarting device...", console.StyleNeutral, true)
	if err := conn.Send(at.CmdRestart); err != nil {
		return failed(conn, err)
	}
	r.sleep(r.timing.RebootWait)
	r.closeConn(log, conn)

	step = StepReconnect
	log.Info("entering step", "step", step)
	r.sink.Emit("- Waiting for device to reconnect...", console.StyleNeutral, true)
	r.sleep(r.timing.ReconnectWait)
	next, err := r.connect(ctx, log)
	if err != nil {
		return failed(nil, err)
	}

	step = StepConfigure2
	log.Info("entering step", "step", step)
	r.sink.Emit("- Processing step 2...", console.StyleNeutral, true)
	if err := r.configure(next, r.carriers[1]); err != nil {
		return failed(next, err)
	}

	r.sink.Emit("- FRP Done", console.StyleSuccess, true)
	log.Info("frp reset finished", "step", StepDone)
	return next, nil
}

// configure applies the carrier preconfiguration and leaves diagnostic mode
// disabled ahead of the restart that follows.
func (r *Runner) configure(conn *modem.Conn, carrier string) error {
	cmds := append(append([]at.Command{}, diagnosticMode...), at.Preconfigure(carrier), at.CmdWatchdogOff)
	return r.settled(conn, cmds...)
}

func (r *Runner) failStep(log *slog.Logger, step Step, err error) error {
	serr := &StepError{Step: step, Err: err}
	r.sink.Emit("Error: "+serr.Error(), console.StyleError, true)
	log.Error("procedure failed", "step", step, "error", err)
	return serr
}
