// Package schedule triggers the poll pipeline on a fixed interval.
package schedule

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "firewatch/pkg/logx"
)

type Config struct {
	Enabled  bool
	Interval time.Duration // default 5m
}

// Service wraps a cron runner around a single job with a skip-if-running
// overlap policy: a poll that outlives the interval is never doubled up.
type Service struct {
	mu sync.Mutex

	cfg Config
	log logx.Logger
	job func(ctx context.Context)

	c       *cron.Cron
	running bool

	runCtx    context.Context
	runCancel context.CancelFunc
}

func New(cfg Config, job func(ctx context.Context), log logx.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, log: log, job: job}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.c != nil || !s.cfg.Enabled {
		return
	}

	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.c = cron.New()

	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	_, err := s.c.AddFunc(spec, s.tick)
	if err != nil {
		// Interval is validated above; an AddFunc failure is a programming error.
		s.log.Error("schedule registration failed", logx.String("spec", spec), logx.Err(err))
		s.c = nil
		s.runCancel()
		return
	}

	s.c.Start()
	s.log.Info("poll schedule started", logx.Duration("interval", s.cfg.Interval))
}

func (s *Service) tick() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("previous poll still running, skipping tick")
		return
	}
	s.running = true
	ctx := s.runCtx
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in poll job",
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.job(ctx)
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	cancel := s.runCancel
	s.c = nil
	s.runCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	s.log.Info("poll schedule stopped")
}
