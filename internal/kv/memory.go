package kv

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// memStore keeps everything in-process. State is lost on restart; useful for
// tests and for running without external storage.
type memStore struct {
	mu sync.Mutex
	m  map[string]memEntry

	// now is swappable in tests.
	now func() time.Time
}

func NewMemory() Store {
	return &memStore{m: map[string]memEntry{}, now: time.Now}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.m, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (s *memStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.m[key] = e
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *memStore) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := map[string][]byte{}
	for k, e := range s.m {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(s.m, k)
			continue
		}
		out[k] = append([]byte(nil), e.value...)
	}
	return out, nil
}

func (s *memStore) Close() error { return nil }
