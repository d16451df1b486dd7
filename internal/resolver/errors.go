package resolver

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates a transport failure reaching the signing
// collaborator; surfaced to the listener as a generic message.
var ErrUnavailable = errors.New("archive is temporarily unreachable")

// DeniedError carries the signing collaborator's denial reason verbatim so
// the playback error state can surface it to the listener.
type DeniedError struct {
	Reason string
}

// Error implements the error interface
func (e *DeniedError) Error() string {
	if e.Reason == "" {
		return "access to this recording was denied"
	}
	return e.Reason
}

// NewDeniedError creates a DeniedError with the collaborator's reason
func NewDeniedError(format string, args ...interface{}) *DeniedError {
	return &DeniedError{Reason: fmt.Sprintf(format, args...)}
}

// IsDenied checks if the error is a collaborator denial
func IsDenied(err error) bool {
	var denied *DeniedError
	return errors.As(err, &denied)
}

// IsUnavailable checks if the error is a transport failure
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
