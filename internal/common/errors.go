package common

import "errors"

var (
	// ErrNotFound is returned by repositories when a key is absent.
	ErrNotFound = errors.New("not found")

	// ErrCorruptRecord marks a persisted value that cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
)
