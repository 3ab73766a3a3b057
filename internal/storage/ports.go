// Package storage defines the durable key-value port the list store
// persists its snapshot through. Adapters live in the subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("key not found")

// KV is a durable key-value byte store.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
}
