package session

import "errors"

var (
	// ErrNoActiveSession is returned by Abort when there is nothing to abort.
	ErrNoActiveSession = errors.New("no active scan session")

	// ErrControllerClosed is returned when starting a scan on a stopped
	// controller.
	ErrControllerClosed = errors.New("session controller is stopped")

	errMalformedFrame = errors.New("malformed stream frame")
	errStreamStalled  = errors.New("stream stalled")
)
