package kv

import (
	"context"
	"testing"
	"time"
)

func TestMemoryPutGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()

	if err := s.Put(ctx, "a", []byte("1"), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := s.Get(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Get = (%q, %v, %v), want present", v, ok, err)
	}
	if string(v) != "1" {
		t.Fatalf("value = %q, want %q", v, "1")
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatal("key still present after delete")
	}

	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Now()
	s := &memStore{m: map[string]memEntry{}, now: func() time.Time { return now }}

	if err := s.Put(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("key should be live before expiry")
	}

	now = now.Add(2 * time.Hour)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("key should read as absent after expiry")
	}
}

func TestMemoryListPrefix(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()

	_ = s.Put(ctx, "endpoint:1", []byte("a"), 0)
	_ = s.Put(ctx, "endpoint:2", []byte("b"), 0)
	_ = s.Put(ctx, "event:1", []byte("c"), 0)

	got, err := s.List(ctx, "endpoint:")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d keys, want 2", len(got))
	}
	if _, ok := got["event:1"]; ok {
		t.Fatal("List leaked a key outside the prefix")
	}
}

func TestPartitionSerializesOps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewPartition("test", NewMemory())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = p.Put(ctx, "k", []byte{byte(i)}, 0)
		}
	}()
	for i := 0; i < 100; i++ {
		_, _, _ = p.Get(ctx, "k")
	}
	<-done

	if p.Name() != "test" {
		t.Fatalf("Name = %q, want %q", p.Name(), "test")
	}
}
