package kv

import (
	"context"
	"sync"
	"time"
)

// Partition is an explicitly constructed single-writer handle over a Store.
//
// All operations through the same Partition are serialized by a mutex, so
// components sharing one Partition (registry, dedup filter) never observe
// concurrent mutation of the same key space. Construct it once in app wiring
// and pass it down; there is no implicit named singleton.
type Partition struct {
	name  string
	store Store

	mu sync.Mutex
}

func NewPartition(name string, store Store) *Partition {
	return &Partition{name: name, store: store}
}

func (p *Partition) Name() string { return p.name }

func (p *Partition) Get(ctx context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Get(ctx, key)
}

func (p *Partition) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Put(ctx, key, value, ttl)
}

func (p *Partition) Delete(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Delete(ctx, key)
}

func (p *Partition) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.List(ctx, prefix)
}
