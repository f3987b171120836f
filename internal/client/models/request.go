package models

import "time"

// RequestContext describes a single outbound call. It is not persisted.
type RequestContext struct {
	RequestID        string
	StartTime        time.Time
	Timeout          time.Duration
	RetriesAttempted int
}
