// Package session holds the in-memory record of who is logged in.
//
// A Session is created explicitly and shared by whatever needs to know the
// current user: route guards in the CLI, profile commands, the background
// refresh watcher. It hydrates once from the credential store, writes every
// change back through that store, and drops to ANONYMOUS when the request
// pipeline reports that a refresh failed.
package session
