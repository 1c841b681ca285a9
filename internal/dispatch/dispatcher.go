// Package dispatch renders per-endpoint payloads and performs best-effort
// notification delivery for a batch of events.
package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"firewatch/internal/events"
	"firewatch/internal/registry"
	logx "firewatch/pkg/logx"
)

// Sender delivers one batch to one endpoint. Implementations return an error
// for non-success HTTP statuses as well as transport failures; the dispatcher
// logs and swallows it.
type Sender interface {
	Send(ctx context.Context, ep registry.Endpoint, evs []events.SecurityEvent) error
}

type Config struct {
	RatePerSec int
	Timeout    time.Duration
}

type Dispatcher struct {
	log logx.Logger

	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	senders map[registry.EndpointType]Sender
}

func New(cfg Config, email EmailConfig, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{log: log}
	d.applyLocked(cfg)

	client := &http.Client{Timeout: d.cfg.Timeout}
	d.senders = map[registry.EndpointType]Sender{
		registry.TypeWebhook: &webhookSender{client: client},
		registry.TypeSlack:   &slackSender{client: client},
		registry.TypeEmail:   newEmailSender(email, log.With(logx.String("sender", "email"))),
	}
	return d
}

func (d *Dispatcher) Apply(cfg Config) {
	d.mu.Lock()
	d.applyLocked(cfg)
	d.mu.Unlock()
}

func (d *Dispatcher) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	d.cfg = cfg
	// Token bucket: burst = rate per sec, so a batch fan-out doesn't stall.
	d.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Dispatch sends the batch to every enabled endpoint concurrently. Failures
// are logged per endpoint and never propagate; the call always succeeds from
// the orchestrator's point of view. An empty batch is a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoints []registry.Endpoint, evs []events.SecurityEvent) {
	if len(evs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, ep := range endpoints {
		if !ep.Enabled {
			continue
		}
		wg.Add(1)
		go func(ep registry.Endpoint) {
			defer wg.Done()
			d.sendOne(ctx, ep, evs)
		}(ep)
	}
	wg.Wait()
}

func (d *Dispatcher) sendOne(ctx context.Context, ep registry.Endpoint, evs []events.SecurityEvent) {
	// Snapshot mutable dependencies to avoid races with Apply().
	d.mu.Lock()
	lim := d.limiter
	d.mu.Unlock()

	sender, ok := d.senders[ep.Type]
	if !ok {
		d.log.Warn("unknown endpoint type, skipping",
			logx.String("endpoint", ep.Name),
			logx.String("type", string(ep.Type)))
		return
	}

	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			d.log.Warn("notification send aborted",
				logx.String("endpoint", ep.Name), logx.Err(err))
			return
		}
	}

	start := time.Now()
	if err := sender.Send(ctx, ep, evs); err != nil {
		d.log.Warn("notification send failed",
			logx.String("endpoint", ep.Name),
			logx.String("type", string(ep.Type)),
			logx.Int("events", len(evs)),
			logx.Err(err))
		return
	}
	d.log.Info("notification sent",
		logx.String("endpoint", ep.Name),
		logx.String("type", string(ep.Type)),
		logx.Int("events", len(evs)),
		logx.Duration("took", time.Since(start)))
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
