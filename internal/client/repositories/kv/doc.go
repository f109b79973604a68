// Package kv provides the storage backends behind the credential store:
// SQLite (local file, the default), Redis (shared between client processes)
// and memory (tests, ephemeral sessions).
//
// Keys are written in sorted order inside one transaction, so an interrupted
// write never leaves a mix of old and new values visible.
package kv
