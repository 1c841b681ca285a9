// Package dedup separates already-notified events from newly-seen ones using
// processed-event markers in the keyed store.
package dedup

import (
	"context"
	"encoding/json"
	"time"

	"firewatch/internal/events"
	"firewatch/internal/kv"
	logx "firewatch/pkg/logx"
)

const keyPrefix = "event:"

// DefaultRetention is how long a processed-event marker lives. A repeat of
// the same event ID inside this window is suppressed; afterwards it would
// notify again, which is acceptable for a 5-minute poll lookback.
const DefaultRetention = 24 * time.Hour

type Filter struct {
	state     *kv.Partition
	retention time.Duration
	log       logx.Logger
}

func New(state *kv.Partition, retention time.Duration, log logx.Logger) *Filter {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Filter{state: state, retention: retention, log: log}
}

// Partition returns the subsequence of events (preserving order) that carry
// no processed marker. The mere presence of a marker suppresses the event;
// its value is never inspected.
func (f *Filter) Partition(ctx context.Context, evs []events.SecurityEvent) ([]events.SecurityEvent, error) {
	fresh := make([]events.SecurityEvent, 0, len(evs))
	for _, ev := range evs {
		_, seen, err := f.state.Get(ctx, keyPrefix+ev.ID)
		if err != nil {
			return nil, err
		}
		if seen {
			continue
		}
		fresh = append(fresh, ev)
	}
	return fresh, nil
}

// MarkProcessed writes a marker per event with the retention expiry.
//
// Called only after the dispatch attempt completes: dispatch-then-mark favors
// at-least-once notification over strict dedup. A crash between dispatch and
// marking re-notifies on the next poll instead of silently dropping.
func (f *Filter) MarkProcessed(ctx context.Context, evs []events.SecurityEvent) error {
	for _, ev := range evs {
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if err := f.state.Put(ctx, keyPrefix+ev.ID, b, f.retention); err != nil {
			return err
		}
	}
	if len(evs) > 0 {
		f.log.Debug("events marked processed", logx.Int("count", len(evs)))
	}
	return nil
}
