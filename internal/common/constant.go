// Package common contains shared constants, sentinel errors and small helpers
// used across FormAI client components.
package common

// RequestIDHeaderName is the HTTP header carrying the per-attempt correlation id
// on outbound requests.
const RequestIDHeaderName = "X-Request-ID"

// UserAgent identifies the client to the backend.
const UserAgent = "formai-cli/1.0"
