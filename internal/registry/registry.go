// Package registry stores notification endpoint registrations in the keyed store.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"firewatch/internal/kv"
	logx "firewatch/pkg/logx"
)

const keyPrefix = "endpoint:"

// EndpointType selects the delivery transport for an endpoint.
type EndpointType string

const (
	TypeWebhook EndpointType = "webhook"
	TypeSlack   EndpointType = "slack"
	TypeEmail   EndpointType = "email"
)

// Endpoint is a notification endpoint registration.
//
// Exactly one of URL/Email is populated, consistent with Type. The registry
// does not enforce this; a malformed registration simply fails at send time.
type Endpoint struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      EndpointType `json:"type"`
	URL       string       `json:"url,omitempty"`
	Email     string       `json:"email,omitempty"`
	Enabled   bool         `json:"enabled"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Registry struct {
	state *kv.Partition
	log   logx.Logger
}

func New(state *kv.Partition, log logx.Logger) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{state: state, log: log}
}

// Add stores the endpoint keyed by its ID, overwriting any existing
// registration with the same ID.
func (r *Registry) Add(ctx context.Context, ep Endpoint) error {
	b, err := json.Marshal(ep)
	if err != nil {
		return fmt.Errorf("marshal endpoint: %w", err)
	}
	if err := r.state.Put(ctx, keyPrefix+ep.ID, b, 0); err != nil {
		return fmt.Errorf("store endpoint: %w", err)
	}
	r.log.Info("endpoint registered",
		logx.String("id", ep.ID),
		logx.String("name", ep.Name),
		logx.String("type", string(ep.Type)))
	return nil
}

// Remove deletes the registration. Removing an unknown ID is not an error.
func (r *Registry) Remove(ctx context.Context, id string) error {
	if err := r.state.Delete(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	r.log.Info("endpoint removed", logx.String("id", id))
	return nil
}

// List returns all stored endpoints. Order is not significant.
func (r *Registry) List(ctx context.Context) ([]Endpoint, error) {
	raw, err := r.state.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	out := make([]Endpoint, 0, len(raw))
	for k, v := range raw {
		var ep Endpoint
		if err := json.Unmarshal(v, &ep); err != nil {
			r.log.Warn("skipping unreadable endpoint record", logx.String("key", k), logx.Err(err))
			continue
		}
		out = append(out, ep)
	}
	return out, nil
}

// Toggle flips the enabled flag. Toggling an unknown ID is a silent no-op.
func (r *Registry) Toggle(ctx context.Context, id string, enabled bool) error {
	key := keyPrefix + id
	b, ok, err := r.state.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read endpoint: %w", err)
	}
	if !ok {
		return nil
	}
	var ep Endpoint
	if err := json.Unmarshal(b, &ep); err != nil {
		return fmt.Errorf("decode endpoint: %w", err)
	}
	ep.Enabled = enabled
	nb, err := json.Marshal(ep)
	if err != nil {
		return fmt.Errorf("marshal endpoint: %w", err)
	}
	if err := r.state.Put(ctx, key, nb, 0); err != nil {
		return fmt.Errorf("store endpoint: %w", err)
	}
	r.log.Info("endpoint toggled", logx.String("id", id), logx.Bool("enabled", enabled))
	return nil
}
