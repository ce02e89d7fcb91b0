// Package storage persists board snapshots in a key-value store. The board
// lives under a single key and every save overwrites it completely.
package storage

import (
	"context"
	"errors"
)

// DefaultKey is the key the board is stored under.
const DefaultKey = "kanbanBoard"

// ErrNotExist is returned by KV.Get when the key has never been written.
var ErrNotExist = errors.New("key does not exist")

// KV is a durable key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
