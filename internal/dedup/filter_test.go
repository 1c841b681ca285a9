package dedup

import (
	"context"
	"testing"
	"time"

	"firewatch/internal/events"
	"firewatch/internal/kv"
	logx "firewatch/pkg/logx"
)

func ev(id string) events.SecurityEvent {
	return events.SecurityEvent{ID: id, Action: "block", Timestamp: "2026-08-24T10:00:00Z"}
}

func TestPartitionDropsMarked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := New(kv.NewPartition("test", kv.NewMemory()), time.Hour, logx.Nop())

	batch := []events.SecurityEvent{ev("a"), ev("b"), ev("c")}
	if err := f.MarkProcessed(ctx, batch[1:2]); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	fresh, err := f.Partition(ctx, batch)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(fresh) != 2 {
		t.Fatalf("got %d fresh events, want 2", len(fresh))
	}
	// Order preserved.
	if fresh[0].ID != "a" || fresh[1].ID != "c" {
		t.Fatalf("fresh = [%s %s], want [a c]", fresh[0].ID, fresh[1].ID)
	}
}

func TestMarkThenPartitionIsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := New(kv.NewPartition("test", kv.NewMemory()), time.Hour, logx.Nop())

	batch := []events.SecurityEvent{ev("x"), ev("y")}
	if err := f.MarkProcessed(ctx, batch); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	fresh, err := f.Partition(ctx, batch)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(fresh) != 0 {
		t.Fatalf("got %d fresh events after marking, want 0", len(fresh))
	}
}

func TestMarkerExpiryMakesEventEligibleAgain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemory()
	f := New(kv.NewPartition("test", store), time.Hour, logx.Nop())

	if err := f.MarkProcessed(ctx, []events.SecurityEvent{ev("a")}); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	// The marker carries a TTL; simulate expiry by removing it.
	if err := store.Delete(ctx, "event:a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	fresh, err := f.Partition(ctx, []events.SecurityEvent{ev("a")})
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(fresh) != 1 {
		t.Fatalf("event with expired marker should be eligible again")
	}
}
