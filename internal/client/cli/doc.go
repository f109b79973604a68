// Package cli provides the interactive DreamWell command-line client.
//
// It wires configuration, the credential store, the authenticated request
// pipeline and the session, then runs a REPL. The prompt appears only after
// the session has been hydrated from the store, and commands that need a
// logged-in user (or an administrator) are refused otherwise. A background
// watcher refreshes JWT access tokens shortly before they expire.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
