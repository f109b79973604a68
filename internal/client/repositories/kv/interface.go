package kv

import "context"

// Backend is a durable key-value store for credential fields.
//
// PutMany and DeleteMany are atomic: a concurrent GetMany observes either
// all of the changes or none of them.
type Backend interface {
	// GetMany returns the stored values for keys. Absent keys are omitted
	// from the result rather than reported as errors.
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	PutMany(ctx context.Context, values map[string][]byte) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// Persister is implemented by backends whose PutMany may attach an expiry.
// PutPersistent writes values that never expire.
type Persister interface {
	PutPersistent(ctx context.Context, values map[string][]byte) error
}
