package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsuccessful is returned when the API answers 2xx with success:false.
	ErrUnsuccessful = errors.New("request was not successful")

	// ErrCircuitOpen is returned without a network call while the breaker is open.
	ErrCircuitOpen = errors.New("chat backend unavailable (circuit open)")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}
