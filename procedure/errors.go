package procedure

import (
	"errors"
	"fmt"
)

var (
	ErrNoDialer    = errors.New("no dialer provided")
	ErrNoSink      = errors.New("no log sink provided")
	ErrNoConfirmer = errors.New("no operator confirmation provided")
	ErrCarriers    = errors.New("exactly two carriers are required")

	// ErrNotConnected is returned when a procedure is given a nil handle.
	ErrNotConnected = errors.New("no device connected")

	// ErrProtocolMismatch means a response arrived but its value is outside
	// the set the device is expected to report.
	ErrProtocolMismatch = errors.New("unrecognized response")
)

// StepError reports the step a multi-step procedure had reached when it
// failed. The steps after it were not attempted.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("failed at %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
