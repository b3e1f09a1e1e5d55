package mediator

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPayload is returned when a request carries no query or id.
	ErrEmptyPayload = errors.New("empty request payload")

	// ErrUnknownClass is returned for a request class the mediator does not serve.
	ErrUnknownClass = errors.New("unknown request class")

	// ErrTransport means no response was obtained (DNS, connection, timeout).
	ErrTransport = errors.New("transport failure")

	// ErrBadStatus means a response arrived with a non-success status code.
	ErrBadStatus = errors.New("bad status")

	// ErrRetryLost marks a retry whose pending request was already cleared when
	// the attempt was interrupted. It is logged and never surfaced to the user.
	ErrRetryLost = errors.New("retry lost")
)

// StatusError carries the upstream status code of a failed request.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// Is makes errors.Is(err, ErrBadStatus) match any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrBadStatus
}
