package procedure

import (
	"context"
	"log/slog"
	"time"

	"widtech.dev/atfrp/at"
	"widtech.dev/atfrp/console"
	"widtech.dev/atfrp/modem"
	"widtech.dev/atfrp/parse"
)

// query describes a single-round procedure: an optional priming command, the
// query itself and the parser applied to its response.
type query struct {
	name    string
	banner  string
	prime   bool
	cmd     at.Command
	window  time.Duration
	extract func(text string) string
	// fallback is shown instead of Unknown when set.
	fallback string
	style    console.Style
}

// start opens a procedure run. It fails when the handle is missing or ctx is
// already done.
func (r *Runner) start(ctx context.Context, name string, conn *modem.Conn) (*slog.Logger, error) {
	log := r.begin(name)
	if conn == nil {
		return log, r.notConnected(log)
	}
	if err := ctx.Err(); err != nil {
		return log, r.fail(log, err)
	}
	return log, nil
}

func (r *Runner) single(ctx context.Context, conn *modem.Conn, q query) (string, error) {
	log, err := r.start(ctx, q.name, conn)
	if err != nil {
		return parse.Unknown, err
	}

	r.sink.Emit(q.banner, console.StyleNeutral, false)

	if q.prime {
		// The query is still worth trying when priming fails.
		if err := conn.Send(at.CmdWatchdogOn); err != nil {
			log.Warn("priming command failed", "command", at.CmdWatchdogOn.Text, "error", err)
		}
		r.sleep(r.timing.ShortSettle)
	}

	text, err := conn.Exchange(q.cmd, q.window)
	if err != nil {
		r.sink.Emit("", console.StyleNeutral, true)
		return parse.Unknown, r.fail(log, err)
	}

	value := q.extract(text)
	log.Debug("procedure finished", "value", value)
	if value == parse.Unknown && q.fallback != "" {
		r.sink.Emit(q.fallback, q.style, true)
		return value, nil
	}
	r.sink.Emit(value, q.style, true)
	return value, nil
}

// AndroidVersion reports the major Android version, or parse.Unknown.
func (r *Runner) AndroidVersion(ctx context.Context, conn *modem.Conn) (string, error) {
	return r.single(ctx, conn, query{
		name:   "android-version",
		banner: "- Getting Android Version: ",
		cmd:    at.CmdVersion,
		window: r.timing.VersionWindow,
		extract: func(text string) string {
			return parse.Digits(text, at.MarkerVersion, 1)
		},
		style: console.StyleNeutral,
	})
}

// SIMLockStatus reports the SIM lock state, or parse.Unknown.
func (r *Runner) SIMLockStatus(ctx context.Context, conn *modem.Conn) (string, error) {
	return r.single(ctx, conn, query{
		name:   "simlock",
		banner: "- Checking SIM Lock Status: ",
		cmd:    at.CmdSIMLock,
		window: r.timing.SIMLockWindow,
		extract: func(text string) string {
			return parse.Nth(text, at.MarkerSIMLock, 2)
		},
		style: console.StyleNeutral,
	})
}

// Chipset reports the chipset name, or parse.Unknown.
func (r *Runner) Chipset(ctx context.Context, conn *modem.Conn) (string, error) {
	return r.single(ctx, conn, query{
		name:   "chipset",
		banner: "- Checking Chipset: ",
		prime:  true,
		cmd:    at.CmdChipset,
		window: r.timing.ChipsetWindow,
		extract: func(text string) string {
			return parse.Nth(text, at.MarkerChipset, 0)
		},
		fallback: "Can't identify chip",
		style:    console.StyleWarning,
	})
}

// CarrierID reports the carrier code, or parse.Unknown.
func (r *Runner) CarrierID(ctx context.Context, conn *modem.Conn) (string, error) {
	return r.single(ctx, conn, query{
		name:   "carrier-id",
		banner: "- Checking CarrierID: ",
		prime:  true,
		cmd:    at.CmdCarrierID,
		window: r.timing.CarrierWindow,
		extract: func(text string) string {
			return parse.Nth(text, at.MarkerCarrierID, 0)
		},
		fallback: "Unknown",
		style:    console.StyleNeutral,
	})
}

// ReadDeviceInfo queries the identity record. Fields the device did not
// report are parse.Unknown.
func (r *Runner) ReadDeviceInfo(ctx context.Context, conn *modem.Conn) (parse.DeviceInfo, error) {
	log, err := r.start(ctx, "device-info", conn)
	if err != nil {
		return parse.ParseDeviceInfo(""), err
	}

	r.sink.Emit("- Reading info: ", console.StyleNeutral, false)
	r.sink.Emit("[OK]", console.StyleSuccess, true)

	text, err := conn.Exchange(at.CmdDeviceInfo, r.timing.DeviceInfoWindow)
	if err != nil {
		return parse.ParseDeviceInfo(""), r.fail(log, err)
	}

	info := parse.ParseDeviceInfo(text)
	for _, f := range info {
		if f.Label == parse.LabelSecurityPatch && f.Value == parse.Unknown {
			r.sink.Emit("Invalid security patch data", console.StyleError, true)
			continue
		}
		r.sink.Emit("- "+f.Label+": "+f.Value, console.StyleNeutral, true)
	}
	log.Debug("procedure finished", "model", info.Get(parse.LabelModel))
	return info, nil
}

// ReadDownloadInfo reads the identity record a device in download mode
// reports for DVIF. An empty result means no record was found.
func (r *Runner) ReadDownloadInfo(ctx context.Context, conn *modem.Conn) ([]parse.Field, error) {
	log, err := r.start(ctx, "download-info", conn)
	if err != nil {
		return nil, err
	}

	r.sink.Emit("Reading device info... ", console.StyleNeutral, false)

	text, err := conn.Exchange(at.CmdDownloadInfo, r.timing.DownloadInfoWindow)
	if err != nil {
		r.sink.Emit("", console.StyleNeutral, true)
		return nil, r.fail(log, err)
	}

	fields := parse.Record(text)
	if len(fields) == 0 {
		r.sink.Emit("Failed", console.StyleError, true)
		log.Warn("no download mode record", "bytes", len(text))
		return nil, nil
	}

	r.sink.Emit("OK", console.StyleSuccess, true)
	for _, f := range fields {
		r.sink.Emit(f.Label+": ", console.StyleNeutral, false)
		r.sink.Emit(f.Value, console.StyleNeutral, true)
	}
	return fields, nil
}
