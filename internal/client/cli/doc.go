// Package cli provides the interactive FormRelay command-line client.
//
// It wires configuration, local storage, API services, and an interactive
// REPL that supports online/offline operation. Submissions that cannot be
// delivered because the server is unreachable land in a durable queue and
// are replayed automatically when connectivity returns.
package cli
