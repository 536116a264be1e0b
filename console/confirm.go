package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/peterh/liner"
)

//go:generate go tool mockgen -source=confirm.go -destination=mock_confirm.go -package=console

// ErrAborted is returned when the operator declines a confirmation.
var ErrAborted = errors.New("aborted by operator")

// Confirmer blocks until the operator has performed a manual step on the
// device and acknowledged it. There is no timeout: the wait is paced by the
// operator, not by the device.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) error
}

// ConfirmFunc adapts a plain function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) error

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) error {
	return f(ctx, prompt)
}

// LinePrompt asks for confirmation on the controlling terminal. Enter
// acknowledges, Ctrl-C or Ctrl-D aborts.
type LinePrompt struct{}

func (LinePrompt) Confirm(ctx context.Context, prompt string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	_, err := line.Prompt(prompt + " [Enter to continue] ")
	switch {
	case err == nil:
		return nil
	case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
		return ErrAborted
	default:
		return fmt.Errorf("read confirmation: %w", err)
	}
}
