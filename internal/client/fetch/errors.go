package fetch

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches any *TimeoutError via errors.Is.
var ErrTimeout = errors.New("request timed out")

// ErrBodyTooLarge is returned when a response body exceeds the buffer limit.
// It is not retried.
var ErrBodyTooLarge = errors.New("response body too large")

// TimeoutError is returned when an attempt ran past its timeout and was aborted.
type TimeoutError struct {
	Elapsed   time.Duration
	Timeout   time.Duration
	RequestID string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s timed out after %d ms (limit %d ms)",
		e.RequestID, e.Elapsed.Milliseconds(), e.Timeout.Milliseconds())
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
