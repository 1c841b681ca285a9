package kv

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("kv: storage disabled")

// Store is the keyed persistence API used by the registry and dedup filter.
//
// TTL semantics: a zero ttl means the key never expires. Expired keys read
// as absent; drivers may reclaim them lazily.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// List returns all live keys with the given prefix and their values.
	// Order is not significant.
	List(ctx context.Context, prefix string) (map[string][]byte, error)

	Close() error
}

// Config configures the keyed store.
//
// Driver values:
//   - "memory": in-process map
//   - "sqlite": SQLite database file
//   - "redis":  Redis via URL
type Config struct {
	Driver      string
	Path        string        // sqlite only
	URL         string        // redis only
	BusyTimeout time.Duration // sqlite only; 0 means default
}
