package registry

import (
	"context"
	"testing"
	"time"

	"firewatch/internal/kv"
	logx "firewatch/pkg/logx"
)

func newTestRegistry() *Registry {
	return New(kv.NewPartition("test", kv.NewMemory()), logx.Nop())
}

func TestAddListRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newTestRegistry()

	ep := Endpoint{
		ID:        "ep-1",
		Name:      "ops hook",
		Type:      TypeWebhook,
		URL:       "https://example.test/hook",
		Enabled:   true,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := r.Add(ctx, ep); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List returned %d endpoints, want 1", len(got))
	}
	if !got[0].CreatedAt.Equal(ep.CreatedAt) {
		t.Fatalf("CreatedAt = %v, want %v", got[0].CreatedAt, ep.CreatedAt)
	}
	got[0].CreatedAt = ep.CreatedAt
	if got[0] != ep {
		t.Fatalf("round-trip mismatch:\n got %+v\nwant %+v", got[0], ep)
	}
}

func TestAddOverwritesSameID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newTestRegistry()

	_ = r.Add(ctx, Endpoint{ID: "x", Name: "first", Type: TypeWebhook})
	_ = r.Add(ctx, Endpoint{ID: "x", Name: "second", Type: TypeWebhook})

	got, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List returned %d endpoints, want 1", len(got))
	}
	if got[0].Name != "second" {
		t.Fatalf("Name = %q, want %q", got[0].Name, "second")
	}
}

func TestRemoveAbsentIsNoError(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	if err := r.Remove(context.Background(), "never-existed"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestToggle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newTestRegistry()

	_ = r.Add(ctx, Endpoint{ID: "a", Name: "a", Type: TypeSlack, URL: "https://hooks.test", Enabled: true})

	if err := r.Toggle(ctx, "a", false); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	got, _ := r.List(ctx)
	if len(got) != 1 || got[0].Enabled {
		t.Fatalf("endpoint still enabled after toggle: %+v", got)
	}
}

func TestToggleUnknownIDIsSilentNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newTestRegistry()

	_ = r.Add(ctx, Endpoint{ID: "a", Name: "a", Type: TypeWebhook, Enabled: true})

	if err := r.Toggle(ctx, "ghost", true); err != nil {
		t.Fatalf("Toggle unknown id: %v", err)
	}
	got, _ := r.List(ctx)
	if len(got) != 1 || got[0].ID != "a" || !got[0].Enabled {
		t.Fatalf("registry changed by toggling unknown id: %+v", got)
	}
}
