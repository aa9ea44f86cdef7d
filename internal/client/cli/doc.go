// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration and the gRPC client into a small REPL that walks a
// user through registration, email verification, login, password recovery
// and social sign-in. The session token lives only in memory.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
