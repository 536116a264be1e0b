package procedure_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"widtech.dev/atfrp/at"
	"widtech.dev/atfrp/console"
	"widtech.dev/atfrp/modem"
	"widtech.dev/atfrp/parse"
	"widtech.dev/atfrp/procedure"
)

func TestCheckFRP(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected parse.FRPStatus
		err      error
		line     string
		style    console.Style
	}{
		{
			name:     "Locked is neutral",
			reply:    "\r\n+REACTIVE:1,LOCK\r\nOK\r\n",
			expected: parse.FRPLocked,
			line:     "- FRP Status: LOCK",
			style:    console.StyleNeutral,
		},
		{
			name:     "Unlocked",
			reply:    "\r\n+REACTIVE:1,UNLOCK\r\nOK\r\n",
			expected: parse.FRPUnlocked,
			line:     "- FRP Status: UNLOCK",
			style:    console.StyleNeutral,
		},
		{
			name:     "Triggered is critical",
			reply:    "\r\n+REACTIVE:1,TRIGGERED\r\nOK\r\n",
			expected: parse.FRPTriggered,
			line:     "- FRP Status: TRIGGERED",
			style:    console.StyleCritical,
		},
		{
			name:     "Unrecognized status fails",
			reply:    "\r\n+REACTIVE:1,BROKEN\r\nOK\r\n",
			expected: parse.FRPUnknown,
			err:      procedure.ErrProtocolMismatch,
			line:     "- FRP Status:  FRP Status: FAIL N/A",
			style:    console.StyleError,
		},
		{
			name:     "Silence fails",
			expected: parse.FRPUnknown,
			err:      procedure.ErrProtocolMismatch,
			line:     "- FRP Status:  FRP Status: FAIL N/A",
			style:    console.StyleError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			transport := modem.NewTestTransport().
				Reply(at.CmdWatchdogOff, "\r\nOK\r\n").
				Reply(at.CmdFRPStatus, tt.reply)
			conn := openConn(t, transport)

			status, err := f.runner.CheckFRP(context.Background(), conn)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected error %v, got: %v", tt.err, err)
			}
			if status != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, status)
			}

			want := []string{"- Setting ATD: [OK]", tt.line}
			if got := f.sink.Lines(); !slices.Equal(got, want) {
				t.Errorf("expected %q, got %q", want, got)
			}
			entries := f.sink.Entries()
			if last := entries[len(entries)-1]; last.Style != tt.style {
				t.Errorf("expected style %s, got %s", tt.style, last.Style)
			}

			wantWrites := wires(at.CmdWatchdogOff, at.CmdActivate, at.CmdWatchdogOn, at.CmdFRPStatus)
			if got := transport.Writes(); !slices.Equal(got, wantWrites) {
				t.Errorf("expected writes %q, got %q", wantWrites, got)
			}
			if !strings.HasSuffix(transport.Writes()[3], "\r") || strings.HasSuffix(transport.Writes()[3], "\r\n") {
				t.Errorf("status query must end with a bare CR, got %q", transport.Writes()[3])
			}
			if got := f.sleep.Sleeps(); !slices.Equal(got, repeat(time.Second, 3)) {
				t.Errorf("expected three settle delays, got %v", got)
			}
		})
	}

	t.Run("Failed transport fails every check", func(t *testing.T) {
		f := newFixture(t)
		transport := modem.NewTestTransport().Reply(at.CmdFRPStatus, "\r\n+REACTIVE:1,LOCK\r\nOK\r\n")
		transport.SendError(errors.New("device disconnected"))
		conn := openConn(t, transport)

		for i := range 2 {
			status, err := f.runner.CheckFRP(context.Background(), conn)

			var terr *modem.TransportError
			if !errors.As(err, &terr) || terr.Op != "read" {
				t.Fatalf("check %d: expected read TransportError, got: %v", i+1, err)
			}
			if errors.Is(err, procedure.ErrProtocolMismatch) {
				t.Errorf("check %d: a dead transport is not a protocol mismatch", i+1)
			}
			if status != parse.FRPUnknown {
				t.Errorf("check %d: expected Unknown, got %s", i+1, status)
			}
		}
		if _, ok := f.sink.Find("FAIL N/A"); ok {
			t.Errorf("unexpected FAIL N/A line in %q", f.sink.Lines())
		}
	})

	t.Run("Priming failure aborts", func(t *testing.T) {
		f := newFixture(t)
		transport := modem.NewTestTransport()
		transport.FailWrites(errors.New("device gone"))
		conn := openConn(t, transport)

		status, err := f.runner.CheckFRP(context.Background(), conn)

		var terr *modem.TransportError
		if !errors.As(err, &terr) {
			t.Fatalf("expected TransportError, got: %v", err)
		}
		if status != parse.FRPUnknown {
			t.Errorf("expected Unknown, got %s", status)
		}
		if _, ok := f.sink.Find("- FRP Status: "); ok {
			t.Error("status query must not run after a failed priming command")
		}
	})
}

// configureWrites is what one configure step of the reset writes.
func configureWrites(carrier string) []string {
	return wires(at.CmdWatchdogOff, at.CmdActivate, at.CmdWatchdogOn, at.Preconfigure(carrier), at.CmdWatchdogOff)
}

func TestResetFRP(t *testing.T) {
	t.Run("Completes over a fresh connection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		dialer := modem.NewMockDialer(ctrl)
		fresh := modem.NewTestTransport()
		dialer.EXPECT().Dial(gomock.Any()).Return(fresh, nil)

		f := newFixture(t, withDialer(dialer))
		old := modem.NewTestTransport()
		conn := openConn(t, old)

		next, err := f.runner.ResetFRP(context.Background(), conn)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next == nil || next == conn {
			t.Fatal("expected a new connection")
		}
		t.Cleanup(func() { _ = next.Close() })

		if !conn.Closed() || !old.Closed() {
			t.Error("expected the old connection to be closed after reboot")
		}
		if got, want := old.Writes(), append(configureWrites("VZW"), wires(at.CmdRestart)...); !slices.Equal(got, want) {
			t.Errorf("expected old writes %q, got %q", want, got)
		}
		if got, want := fresh.Writes(), configureWrites("TMB"); !slices.Equal(got, want) {
			t.Errorf("expected new writes %q, got %q", want, got)
		}

		wantSleeps := slices.Concat(
			repeat(time.Second, 5),
			[]time.Duration{10 * time.Second, 15 * time.Second},
			repeat(time.Second, 5),
		)
		if got := f.sleep.Sleeps(); !slices.Equal(got, wantSleeps) {
			t.Errorf("expected sleeps %v, got %v", wantSleeps, got)
		}

		wantLines := []string{
			"- Starting FRP Reset (USA)...",
			"- Processing step 1...",
			"- Processing step 1... [OK]",
			"- Restarting device...",
			"- Waiting for device to reconnect...",
			"- Connecting: [OK]",
			"- Processing step 2...",
			"- FRP Done",
		}
		if got := f.sink.Lines(); !slices.Equal(got, wantLines) {
			t.Errorf("expected %q, got %q", wantLines, got)
		}
	})

	t.Run("Reconnect failure stops before step 2", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		dialer := modem.NewMockDialer(ctrl)
		dialer.EXPECT().Dial(gomock.Any()).Return(nil, modem.ErrPortNotFound)

		f := newFixture(t, withDialer(dialer))
		old := modem.NewTestTransport()
		conn := openConn(t, old)

		next, err := f.runner.ResetFRP(context.Background(), conn)

		var serr *procedure.StepError
		if !errors.As(err, &serr) {
			t.Fatalf("expected StepError, got: %v", err)
		}
		if serr.Step != procedure.StepReconnect {
			t.Errorf("expected failure at reconnect, got %s", serr.Step)
		}
		if !errors.Is(err, modem.ErrPortNotFound) {
			t.Errorf("expected wrapped ErrPortNotFound, got: %v", err)
		}
		if next != nil {
			t.Error("expected no usable connection after reconnect failure")
		}
		if _, ok := f.sink.Find("- Processing step 2..."); ok {
			t.Error("step 2 must not run after reconnect failure")
		}
		for _, w := range old.Writes() {
			if w == string(at.Preconfigure("TMB").Wire()) {
				t.Error("second carrier must not be configured")
			}
		}
		e, ok := f.sink.Find("failed at reconnect")
		if !ok || e.Style != console.StyleError {
			t.Errorf("expected step failure line, got %q", f.sink.Lines())
		}
	})

	t.Run("Step 1 failure keeps the connection", func(t *testing.T) {
		f := newFixture(t)
		old := modem.NewTestTransport()
		old.FailWrites(errors.New("device gone"))
		conn := openConn(t, old)

		next, err := f.runner.ResetFRP(context.Background(), conn)

		var serr *procedure.StepError
		if !errors.As(err, &serr) || serr.Step != procedure.StepConfigure1 {
			t.Fatalf("expected StepError at step 1, got: %v", err)
		}
		if next != conn || conn.Closed() {
			t.Error("expected the original connection back, still open")
		}
		if len(f.sleep.Sleeps()) != 0 {
			t.Errorf("expected no settle delays, got %v", f.sleep.Sleeps())
		}
	})

	t.Run("Step 2 failure returns the new connection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		dialer := modem.NewMockDialer(ctrl)
		fresh := modem.NewTestTransport()
		fresh.FailWrites(errors.New("not ready"))
		dialer.EXPECT().Dial(gomock.Any()).Return(fresh, nil)

		f := newFixture(t, withDialer(dialer))
		conn := openConn(t, modem.NewTestTransport())

		next, err := f.runner.ResetFRP(context.Background(), conn)

		var serr *procedure.StepError
		if !errors.As(err, &serr) || serr.Step != procedure.StepConfigure2 {
			t.Fatalf("expected StepError at step 2, got: %v", err)
		}
		if next == nil || next == conn {
			t.Fatal("expected the new connection back")
		}
		t.Cleanup(func() { _ = next.Close() })
		if _, ok := f.sink.Find("- FRP Done"); ok {
			t.Error("reset must not report success")
		}
	})

	t.Run("Custom carriers", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		dialer := modem.NewMockDialer(ctrl)
		fresh := modem.NewTestTransport()
		dialer.EXPECT().Dial(gomock.Any()).Return(fresh, nil)

		f := newFixture(t, withDialer(dialer), func(b *procedure.ConfigBuilder) { b.WithCarriers("ATT", "USC") })
		old := modem.NewTestTransport()
		conn := openConn(t, old)

		next, err := f.runner.ResetFRP(context.Background(), conn)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		t.Cleanup(func() { _ = next.Close() })

		if !slices.Contains(old.Writes(), string(at.Preconfigure("ATT").Wire())) {
			t.Errorf("expected ATT before reboot, got %q", old.Writes())
		}
		if got, want := fresh.Writes(), configureWrites("USC"); !slices.Equal(got, want) {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestStepString(t *testing.T) {
	steps := map[procedure.Step]string{
		procedure.StepConfigure1: "step 1",
		procedure.StepReboot:     "reboot",
		procedure.StepReconnect:  "reconnect",
		procedure.StepConfigure2: "step 2",
		procedure.StepDone:       "done",
		procedure.Step(9):        "Step(9)",
	}
	for step, want := range steps {
		if step.String() != want {
			t.Errorf("expected %q, got %q", want, step.String())
		}
	}
}
