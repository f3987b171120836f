package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable       = errors.New("server unavailable")
	ErrPaymentRequired   = errors.New("payment required")
	ErrMalformedResponse = errors.New("unexpected server response")
	ErrMissingPriceIDs   = errors.New("server has no price ids configured")
)

// APIError is a non-success response carrying an error body.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error (status %d): %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}
