// Package app wires configuration, storage, the poll pipeline and the
// management API into one runnable unit.
package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"firewatch/internal/config"
	"firewatch/internal/dedup"
	"firewatch/internal/dispatch"
	"firewatch/internal/events"
	"firewatch/internal/httpapi"
	"firewatch/internal/kv"
	"firewatch/internal/pipeline"
	"firewatch/internal/registry"
	"firewatch/internal/schedule"
	logx "firewatch/pkg/logx"
)

const defaultHTTPAddr = ":8787"

type App struct {
	cfgm *config.ConfigManager

	logs *logx.Service
	log  logx.Logger

	store kv.Store
	disp  *dispatch.Dispatcher
	sched *schedule.Service
	api   *httpapi.Server

	httpAddr string

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelOpen()
	store, err := kv.Open(openCtx, kv.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		URL:         cfg.Storage.URL,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "kv")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	partName := strings.TrimSpace(cfg.Storage.Partition)
	if partName == "" {
		partName = "notifier"
	}
	state := kv.NewPartition(partName, store)

	reg := registry.New(state, log.With(logx.String("comp", "registry")))
	filter := dedup.New(state, dedup.DefaultRetention, log.With(logx.String("comp", "dedup")))

	fetcher := events.NewFetcher(events.Config{
		APIBase:  cfg.Upstream.APIBase,
		APIToken: cfg.Upstream.APIToken,
		ZoneID:   cfg.Upstream.ZoneID,
	}, log.With(logx.String("comp", "fetcher")))

	dispCfg, err := dispatchConfig(cfg)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}
	disp := dispatch.New(dispCfg, dispatch.EmailConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}, log.With(logx.String("comp", "dispatch")))

	lookback, err := config.ParseDurationOrDefault("poll.lookback", cfg.Poll.Lookback, pipeline.DefaultLookback)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}
	pipe := pipeline.New(fetcher, filter, reg, disp, lookback, log.With(logx.String("comp", "pipeline")))

	interval, err := config.ParseDurationOrDefault("poll.interval", cfg.Poll.Interval, 5*time.Minute)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}
	sched := schedule.New(schedule.Config{
		Enabled:  cfg.Poll.Enabled,
		Interval: interval,
	}, func(ctx context.Context) { pipe.CheckAndNotify(ctx) }, log.With(logx.String("comp", "schedule")))

	api := httpapi.New(reg, pipe, log.With(logx.String("comp", "httpapi")))

	addr := strings.TrimSpace(cfg.HTTP.Addr)
	if addr == "" {
		addr = defaultHTTPAddr
	}

	return &App{
		cfgm:     cfgm,
		logs:     logSvc,
		log:      log,
		store:    store,
		disp:     disp,
		sched:    sched,
		api:      api,
		httpAddr: addr,
	}, nil
}

func dispatchConfig(cfg *config.Config) (dispatch.Config, error) {
	timeout, err := config.ParseDurationOrDefault("dispatch.timeout", cfg.Dispatch.Timeout, 15*time.Second)
	if err != nil {
		return dispatch.Config{}, err
	}
	return dispatch.Config{
		RatePerSec: cfg.Dispatch.RatePerSec,
		Timeout:    timeout,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	// Hot-reload logging and dispatch knobs on config file changes.
	sub := a.cfgm.Subscribe(4)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				a.cfgm.Unsubscribe(sub)
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyRuntimeConfig(cfg)
			}
		}
	}()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watch unavailable", logx.Err(err))
		}
	}()

	a.sched.Start(runCtx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.api.ListenAndServe(runCtx, a.httpAddr); err != nil {
			a.log.Error("management api stopped", logx.Err(err))
		}
	}()

	a.log.Info("firewatch started", logx.String("http", a.httpAddr))
	return nil
}

func (a *App) applyRuntimeConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if dispCfg, err := dispatchConfig(cfg); err == nil {
		a.disp.Apply(dispCfg)
	} else {
		a.log.Warn("dispatch config rejected", logx.Err(err))
	}
}

func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.sched.Stop(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	err := a.store.Close()
	a.log.Info("firewatch stopped")
	_ = a.logs.Close()
	return err
}
