// Package fetch performs HTTP calls with a per-attempt timeout, a request
// correlation id and bounded exponential-backoff retries.
//
// Only transport errors and timeouts are retried. Any HTTP status, including
// 5xx, is returned to the caller as a successful Result.
package fetch
