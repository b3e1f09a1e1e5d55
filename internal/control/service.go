package control

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/moviesync/internal/bgsync"
	"github.com/vietddude/moviesync/internal/core/config"
	"github.com/vietddude/moviesync/internal/health"
	"github.com/vietddude/moviesync/internal/infra/assets"
	"github.com/vietddude/moviesync/internal/infra/movieapi"
	"github.com/vietddude/moviesync/internal/mediator"
	"github.com/vietddude/moviesync/internal/notify"
	"github.com/vietddude/moviesync/internal/prefs"
	"github.com/vietddude/moviesync/internal/server"
	"github.com/vietddude/moviesync/internal/staging"
)

const shutdownTimeout = 10 * time.Second

// Service is the background mediator process: the HTTP mediator and the
// background sync loop sharing one durable store.
type Service struct {
	cfg       *config.AppConfig
	store     *Store
	cache     *assets.Cache
	mediator  *mediator.Mediator
	scheduler *bgsync.Scheduler
	monitor   *health.Monitor
	server    *server.Server
	log       *slog.Logger
}

// Options override collaborators of a Service.
type Options struct {
	Store    *Store
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// NewService wires the mediator from cfg.
func NewService(ctx context.Context, cfg *config.AppConfig, opts Options) (*Service, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	store := opts.Store
	if store == nil {
		var err error
		if store, err = OpenStore(ctx, cfg, log); err != nil {
			return nil, err
		}
	}

	client, err := movieapi.NewClient(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("failed to init upstream client: %w", err)
	}

	cache := assets.NewCache(store, cfg.Assets.CacheName, log)
	stager := staging.NewStager(store)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = newNotifier(cfg.Notify, log)
	}

	deps := mediator.Deps{
		Store:    store,
		Cache:    cache,
		Fetcher:  client,
		Stager:   stager,
		Notifier: notifier,
		Logger:   log,
	}

	var scheduler *bgsync.Scheduler
	if !cfg.Sync.Disabled {
		scheduler = bgsync.NewScheduler(store, client, nil, cfg.Sync.Config, log)
		deps.Scheduler = scheduler
	} else {
		log.Info("Background sync disabled")
	}

	m := mediator.New(deps)

	var syncStatus health.SyncStatus
	var trigger server.SyncTrigger
	if scheduler != nil {
		scheduler.SetHandler(m)
		syncStatus = scheduler
		trigger = scheduler
	}

	monitor := health.NewMonitor(syncStatus, stager, 10*time.Second)
	monitor.AddCheck("store", store.Health)

	srv := server.NewServer(cfg.Server, server.Deps{
		Mediator: m,
		Sync:     trigger,
		Assets:   cache,
		Health:   monitor,
		Logger:   log,
	})

	return &Service{
		cfg:       cfg,
		store:     store,
		cache:     cache,
		mediator:  m,
		scheduler: scheduler,
		monitor:   monitor,
		server:    srv,
		log:       log,
	}, nil
}

func newNotifier(cfg config.NotifyConfig, log *slog.Logger) notify.Notifier {
	delivery := notify.Multi{notify.NewLogNotifier(log)}
	if cfg.WebhookURL != "" {
		delivery = append(delivery, notify.NewWebhookNotifier(cfg.WebhookURL, cfg.Timeout))
	}
	return notify.NewGate(delivery, prefs.Permission{Path: cfg.PrefsPath}, log)
}

// Install populates the asset cache from the configured directory or the
// embedded asset set.
func (s *Service) Install(ctx context.Context) (int, error) {
	var src fs.FS
	if s.cfg.Assets.Dir != "" {
		src = os.DirFS(s.cfg.Assets.Dir)
	}
	return s.cache.Install(ctx, src, s.cfg.Assets.Paths)
}

// Run installs the assets and serves until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if n, err := s.Install(ctx); err != nil {
		s.log.Warn("Asset install incomplete", "installed", n, "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Stop(shutdownCtx)
	})

	if s.scheduler != nil {
		g.Go(func() error {
			return s.scheduler.Run(gctx)
		})
	}

	s.store.StartMetricsCollector(gctx)

	return g.Wait()
}

// Handler returns the mediator's HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.server.Handler()
}

// Scheduler returns the background sync scheduler, nil when disabled.
func (s *Service) Scheduler() *bgsync.Scheduler {
	return s.scheduler
}

// Store returns the durable store.
func (s *Service) Store() *Store {
	return s.store
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}
