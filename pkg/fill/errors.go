package fill

import "errors"

var (
	// ErrAborted signals the operator aborted input (Ctrl+C).
	ErrAborted = errors.New("fill: aborted")
	// ErrCancelled is returned when the operator declines to submit.
	ErrCancelled = errors.New("fill: submission cancelled")
)
