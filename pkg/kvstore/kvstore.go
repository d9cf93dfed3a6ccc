// Package kvstore provides the injected key-value layer underneath the
// keyed record store. Every backend exposes versioned reads and an atomic
// compare-and-swap so collection mutations can be serialized without a
// last-writer-wins hazard.
package kvstore

import (
	"context"
	"errors"
)

// Sentinel errors shared by all backends.
var (
	ErrKeyNotFound     = errors.New("kvstore: key not found")
	ErrVersionConflict = errors.New("kvstore: version conflict")
)

// KV is the storage contract the record store is built on.
//
// Get returns the stored value together with a monotonically increasing
// version token. CompareAndSwap succeeds only when the stored version still
// matches; passing version 0 requires the key to be absent (create-only).
type KV interface {
	Get(ctx context.Context, key string) (value []byte, version uint64, err error)
	Set(ctx context.Context, key string, value []byte) error
	CompareAndSwap(ctx context.Context, key string, value []byte, version uint64) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
