// Package cli provides the FormAI command-line client.
//
// App wires configuration, local storage, the backend client, the health
// validator and the entitlement coordinator for the lifetime of the process.
// NewRootCommand exposes App as cobra subcommands (scan, status, health,
// history, plans, subscribe, confirm, settings, reset); without a subcommand
// the interactive REPL starts, with a background watcher that reports when
// the backend goes online or offline.
package cli
