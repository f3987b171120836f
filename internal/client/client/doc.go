// Package client contains client-side building blocks for FormAI.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) to talk
//     to the FormAI backend: Analyze, SubscriptionStatus,
//     CreateCheckoutSession and Products.
//  2. A concrete HTTP implementation (see HTTPClient) built on fetch.Fetcher
//     that gets timeouts, request ids and retries from it and maps responses
//     to sentinel errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the CLI, wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrPaymentRequired, ErrMalformedResponse,
// ErrMissingPriceIDs. Backend error bodies are returned as *APIError.
// Timeouts keep their *fetch.TimeoutError so errors.Is(err, fetch.ErrTimeout)
// works.
//
// See Also
//
//   - Interface:  Client
//   - HTTP impl:  HTTPClient
//   - DB helpers: InitDatabase, RunMigrations
package client
