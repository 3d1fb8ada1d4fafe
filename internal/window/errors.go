package window

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSuchVisual is returned when an explicitly requested visual is not
	// offered by the screen.
	ErrNoSuchVisual = errors.New("requested visual not found")

	// ErrNotSupported is returned for requests this backend cannot honour.
	ErrNotSupported = errors.New("not supported")

	// ErrIMEAlreadyEnabled is returned by an Enable request while an input
	// method is already active.
	ErrIMEAlreadyEnabled = errors.New("input method already enabled")

	// ErrIMENotEnabled is returned by an Update request before Enable.
	ErrIMENotEnabled = errors.New("input method not enabled")
)

// GrabReason identifies why a pointer confinement was refused.
type GrabReason int

const (
	GrabAlreadyGrabbed GrabReason = iota
	GrabInvalidTime
	GrabNotViewable
	GrabFrozen
)

func (r GrabReason) String() string {
	switch r {
	case GrabAlreadyGrabbed:
		return "already confined by another client"
	case GrabInvalidTime:
		return "invalid time"
	case GrabNotViewable:
		return "confine location not viewable"
	case GrabFrozen:
		return "frozen by another client"
	default:
		return fmt.Sprintf("reason %d", int(r))
	}
}

// GrabError reports a refused pointer confinement.
type GrabError struct {
	Reason GrabReason
}

func (e *GrabError) Error() string {
	return "cursor could not be confined: " + e.Reason.String()
}

// IsGrabReason reports whether err is a GrabError with the given reason.
func IsGrabReason(err error, reason GrabReason) bool {
	var ge *GrabError
	return errors.As(err, &ge) && ge.Reason == reason
}

// failedCookie stands in for a request that could not be issued.
type failedCookie struct {
	err error
}

func (c failedCookie) Check() error { return c.err }
func (c failedCookie) Ignore()      {}
