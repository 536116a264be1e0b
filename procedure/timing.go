package procedure

import "time"

// Timing holds every settle delay and read window used by the procedures.
//
// The device gives no ready signal between its internal mode transitions, so
// fixed waits are the only synchronization available. Shortening them makes
// the firmware drop commands silently.
type Timing struct {
	// Settle follows each diagnostic command in multi-step procedures.
	Settle time.Duration
	// ShortSettle follows the priming command of single-round queries and
	// the download mode reboot.
	ShortSettle time.Duration
	// RebootWait is how long the device needs to power-cycle.
	RebootWait time.Duration
	// ReconnectWait is the extra wait before the port is dialed again.
	ReconnectWait time.Duration

	DeviceInfoWindow   time.Duration
	VersionWindow      time.Duration
	SIMLockWindow      time.Duration
	ChipsetWindow      time.Duration
	CarrierWindow      time.Duration
	FRPStatusWindow    time.Duration
	DownloadInfoWindow time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Settle:        1000 * time.Millisecond,
		ShortSettle:   500 * time.Millisecond,
		RebootWait:    10 * time.Second,
		ReconnectWait: 15 * time.Second,

		DeviceInfoWindow:   3500 * time.Millisecond,
		VersionWindow:      1000 * time.Millisecond,
		SIMLockWindow:      1000 * time.Millisecond,
		ChipsetWindow:      1500 * time.Millisecond,
		CarrierWindow:      1500 * time.Millisecond,
		FRPStatusWindow:    3500 * time.Millisecond,
		DownloadInfoWindow: 2500 * time.Millisecond,
	}
}

// orDefault replaces every zero field of t with its default.
func (t Timing) orDefault() Timing {
	d := DefaultTiming()
	fill := func(v *time.Duration, def time.Duration) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&t.Settle, d.Settle)
	fill(&t.ShortSettle, d.ShortSettle)
	fill(&t.RebootWait, d.RebootWait)
	fill(&t.ReconnectWait, d.ReconnectWait)
	fill(&t.DeviceInfoWindow, d.DeviceInfoWindow)
	fill(&t.VersionWindow, d.VersionWindow)
	fill(&t.SIMLockWindow, d.SIMLockWindow)
	fill(&t.ChipsetWindow, d.ChipsetWindow)
	fill(&t.CarrierWindow, d.CarrierWindow)
	fill(&t.FRPStatusWindow, d.FRPStatusWindow)
	fill(&t.DownloadInfoWindow, d.DownloadInfoWindow)
	return t
}
