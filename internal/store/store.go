package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no record exists under the key.
var ErrNotFound = errors.New("store: key not found")

// Store is the key-value capability the repositories build on. Records are
// opaque byte slices addressed by string keys. The contract assumes a single
// writer per key at a time; there is no compare-and-set.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
