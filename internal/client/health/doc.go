// Package health pre-flights the backend before a scan.
//
// A Validator wraps a Prober (HTTP or gRPC) and never returns errors: every
// failure is folded into a Result with OK=false and a short message that can
// be shown to the user as is.
package health
