package health

import "time"

// RoutesFallback says why Result.Routes is empty.
type RoutesFallback string

const (
	RoutesListed    RoutesFallback = ""
	RoutesNoBody    RoutesFallback = "no_body"
	RoutesMalformed RoutesFallback = "malformed_body"
	RoutesNotListed RoutesFallback = "not_listed"
)

// Result is the outcome of a health check.
type Result struct {
	OK             bool
	HTTPStatus     int
	Elapsed        time.Duration
	RequestID      string
	Routes         []string
	RoutesFallback RoutesFallback
	ErrorMessage   string
}
