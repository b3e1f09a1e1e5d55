// Package bgsync provides durable one-shot background sync registrations
// that fire once the upstream becomes reachable.
package bgsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vietddude/moviesync/internal/infra/storage"
	"github.com/vietddude/moviesync/internal/metrics"
)

const registrationPrefix = "sync:registration:"

// WakeHandler is invoked when a registered tag fires.
type WakeHandler interface {
	HandleWake(ctx context.Context, tag string) error
}

// Prober checks whether the upstream is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// Config controls the scheduler loop.
type Config struct {
	ProbeInterval time.Duration `yaml:"probe_interval"`
	MaxAttempts   int           `yaml:"max_attempts"`
	MinBackoff    time.Duration `yaml:"min_backoff"`
	MaxBackoff    time.Duration `yaml:"max_backoff"`
}

// Registration is a durable request to fire tag once online.
type Registration struct {
	Tag          string    `json:"tag"`
	Attempts     int       `json:"attempts"`
	NotBefore    time.Time `json:"not_before"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Scheduler persists registrations and fires them when connectivity returns.
// Wake handlers run one at a time.
type Scheduler struct {
	store    storage.KeyValueStore
	prober   Prober
	handler  WakeHandler
	strategy RetryStrategy
	interval time.Duration
	log      *slog.Logger

	dispatchMu sync.Mutex
	online     atomic.Bool
	kick       chan struct{}
	now        func() time.Time
}

// NewScheduler creates a scheduler. The handler may be attached later with
// SetHandler, before Run is called.
func NewScheduler(
	store storage.KeyValueStore,
	prober Prober,
	handler WakeHandler,
	cfg Config,
	log *slog.Logger,
) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	strategy := DefaultBackoff(nil)
	if cfg.MaxAttempts > 0 {
		strategy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.MinBackoff > 0 {
		strategy.InitialDelay = cfg.MinBackoff
	}
	if cfg.MaxBackoff > 0 {
		strategy.MaxDelay = cfg.MaxBackoff
	}
	interval := cfg.ProbeInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scheduler{
		store:    store,
		prober:   prober,
		handler:  handler,
		strategy: strategy,
		interval: interval,
		log:      log.With("component", "bgsync"),
		kick:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// SetHandler attaches the wake handler.
func (s *Scheduler) SetHandler(h WakeHandler) {
	s.handler = h
}

// Online reports the result of the last connectivity probe.
func (s *Scheduler) Online() bool {
	return s.online.Load()
}

func registrationKey(tag string) string {
	return registrationPrefix + tag
}

// Register records tag for a one-shot fire. Registering a tag that is already
// registered replaces it.
func (s *Scheduler) Register(ctx context.Context, tag string) error {
	if strings.TrimSpace(tag) == "" {
		return errors.New("sync tag is empty")
	}
	now := s.now()
	reg := Registration{Tag: tag, NotBefore: now, RegisteredAt: now}
	if err := storage.SetJSON(ctx, s.store, registrationKey(tag), reg); err != nil {
		return fmt.Errorf("failed to register sync %s: %w", tag, err)
	}
	s.log.Debug("Sync registered", "tag", tag)

	select {
	case s.kick <- struct{}{}:
	default:
	}
	return nil
}

// Pending lists the current registrations ordered by tag.
func (s *Scheduler) Pending(ctx context.Context) ([]Registration, error) {
	keys, err := s.store.Keys(ctx, registrationPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync registrations: %w", err)
	}
	regs := make([]Registration, 0, len(keys))
	for _, key := range keys {
		var reg Registration
		found, err := storage.GetJSON(ctx, s.store, key, &reg)
		if err != nil {
			s.log.Warn("Dropping unreadable sync registration", "key", key, "error", err)
			if delErr := s.store.Delete(ctx, key); delErr != nil {
				s.log.Warn("Failed to drop sync registration", "key", key, "error", delErr)
			}
			continue
		}
		if found {
			regs = append(regs, reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Tag < regs[j].Tag })
	metrics.SyncRegistrations.Set(float64(len(regs)))
	return regs, nil
}

// Run probes connectivity every interval and fires due registrations until
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.handler == nil {
		return errors.New("bgsync: no wake handler")
	}
	s.log.Info("Background sync started", "probe_interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Background sync stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.kick:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one probe and fires every due registration if online.
func (s *Scheduler) RunOnce(ctx context.Context) {
	regs, err := s.Pending(ctx)
	if err != nil {
		s.log.Warn("Failed to load sync registrations", "error", err)
		return
	}
	if len(regs) == 0 {
		return
	}

	if !s.probe(ctx) {
		return
	}

	now := s.now()
	for _, reg := range regs {
		if ctx.Err() != nil {
			return
		}
		if now.Before(reg.NotBefore) {
			continue
		}
		s.dispatch(ctx, reg)
	}
}

func (s *Scheduler) probe(ctx context.Context) bool {
	err := s.prober.Probe(ctx)
	online := err == nil
	if s.online.Swap(online) != online {
		if online {
			s.log.Info("Connectivity restored")
		} else {
			s.log.Info("Connectivity lost", "error", err)
		}
	}
	if online {
		metrics.ConnectivityOnline.Set(1)
	} else {
		metrics.ConnectivityOnline.Set(0)
	}
	return online
}

// Fire dispatches tag immediately, regardless of connectivity. It reports
// whether a registration existed.
func (s *Scheduler) Fire(ctx context.Context, tag string) (bool, error) {
	var reg Registration
	found, err := storage.GetJSON(ctx, s.store, registrationKey(tag), &reg)
	if err != nil {
		return false, err
	}
	if !found {
		reg = Registration{Tag: tag}
	}
	return found, s.dispatch(ctx, reg)
}

// dispatch removes the registration and runs the handler. A failed wake is
// registered again with backoff while attempts remain.
func (s *Scheduler) dispatch(ctx context.Context, reg Registration) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if err := s.store.Delete(ctx, registrationKey(reg.Tag)); err != nil {
		return fmt.Errorf("failed to clear sync registration %s: %w", reg.Tag, err)
	}

	s.log.Debug("Firing sync", "tag", reg.Tag, "attempt", reg.Attempts+1)
	err := s.handler.HandleWake(ctx, reg.Tag)
	if err == nil {
		return nil
	}

	attempts := reg.Attempts + 1
	if !s.strategy.ShouldRetry(err, attempts) {
		s.log.Warn("Sync failed", "tag", reg.Tag, "attempts", attempts, "error", err)
		return err
	}

	// A fresh registration made while the handler ran takes precedence.
	var existing Registration
	if found, _ := storage.GetJSON(ctx, s.store, registrationKey(reg.Tag), &existing); found {
		return err
	}

	delay := s.strategy.GetDelay(attempts - 1)
	next := Registration{
		Tag:          reg.Tag,
		Attempts:     attempts,
		NotBefore:    s.now().Add(delay),
		RegisteredAt: reg.RegisteredAt,
	}
	if setErr := storage.SetJSON(context.WithoutCancel(ctx), s.store, registrationKey(reg.Tag), next); setErr != nil {
		s.log.Warn("Failed to re-register sync", "tag", reg.Tag, "error", setErr)
		return err
	}
	s.log.Info("Sync failed, will fire again", "tag", reg.Tag, "attempt", attempts, "delay", delay, "error", err)
	return err
}
