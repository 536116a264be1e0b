package procedure

import (
	"context"
	"fmt"

	"widtech.dev/atfrp/at"
	"widtech.dev/atfrp/console"
	"widtech.dev/atfrp/modem"
)

// DebugVariant selects the command sequence used to enable debug mode. The
// variants only differ in how the trailing commands are sent.
type DebugVariant int

const (
	Debug2022 DebugVariant = iota
	Debug2023
)

func (v DebugVariant) String() string {
	switch v {
	case Debug2022:
		return "2022"
	case Debug2023:
		return "2023"
	default:
		return fmt.Sprintf("DebugVariant(%d)", int(v))
	}
}

// ParseDebugVariant maps "2022" or "2023" to its variant.
func ParseDebugVariant(s string) (DebugVariant, error) {
	switch s {
	case "2022":
		return Debug2022, nil
	case "2023":
		return Debug2023, nil
	default:
		return 0, fmt.Errorf("unknown debug variant %q", s)
	}
}

func (v DebugVariant) commands() ([]at.Command, error) {
	switch v {
	case Debug2022:
		return []at.Command{
			at.CmdDumpControl, at.CmdDebugLevel,
			at.CmdWatchdogOff, at.CmdActivate, at.CmdWatchdogOn,
			at.CmdDebugLevel,
		}, nil
	case Debug2023:
		return []at.Command{
			at.CmdWatchdogOff, at.CmdActivate, at.CmdWatchdogOn,
			at.Join(at.CmdParallel, at.CmdDebugLevel),
		}, nil
	default:
		return nil, fmt.Errorf("unknown debug variant %s", v)
	}
}

// DialCodePrompt asks the operator to open the engineering menu on the device.
const DialCodePrompt = "Go to emergency call and dial *#0*#, then confirm."

// EnableDebug enables debug mode. After the first command the procedure waits,
// without a timeout, until the operator has dialed the engineering code on the
// device and confirmed it.
func (r *Runner) EnableDebug(ctx context.Context, conn *modem.Conn, variant DebugVariant) error {
	log, err := r.start(ctx, "enable-debug", conn)
	if err != nil {
		return err
	}
	log = log.With("variant", variant)

	cmds, err := variant.commands()
	if err != nil {
		return r.fail(log, err)
	}
	if r.confirmer == nil {
		return r.fail(log, ErrNoConfirmer)
	}

	r.sink.Emit("- Setting debug state: ", console.StyleNeutral, true)

	if err := conn.Send(at.CmdKeyString); err != nil {
		return r.fail(log, err)
	}

	log.Debug("waiting for operator")
	if err := r.confirmer.Confirm(ctx, DialCodePrompt); err != nil {
		return r.fail(log, err)
	}
	r.sleep(r.timing.Settle)

	if err := r.spaced(conn, cmds...); err != nil {
		return r.fail(log, err)
	}

	r.sink.Emit("[OK]", console.StyleSuccess, true)
	log.Info("debug mode enabled")
	return nil
}

// RebootDownloadMode reboots the device into download mode. conn is closed
// whatever the outcome.
func (r *Runner) RebootDownloadMode(ctx context.Context, conn *modem.Conn) error {
	log, err := r.start(ctx, "download-mode", conn)
	if err != nil {
		return err
	}
	defer r.closeConn(log, conn)

	r.sink.Emit("- Rebooting to Download Mode", console.StyleNeutral, true)
	if err := r.send(conn, at.CmdDownloadMode, r.timing.ShortSettle); err != nil {
		return r.fail(log, err)
	}
	r.sink.Emit("- Rebooting device into download mode... [OK]", console.StyleSuccess, true)
	return nil
}

// Restart power-cycles the device. conn is closed whatever the outcome.
func (r *Runner) Restart(ctx context.Context, conn *modem.Conn) error {
	log, err := r.start(ctx, "restart", conn)
	if err != nil {
		return err
	}
	defer r.closeConn(log, conn)

	r.sink.Emit("- Restarting Device", console.StyleNeutral, true)
	if err := conn.Send(at.CmdRestart); err != nil {
		return r.fail(log, err)
	}
	r.sink.Emit("- Device Restarted. [OK]", console.StyleSuccess, true)
	return nil
}
