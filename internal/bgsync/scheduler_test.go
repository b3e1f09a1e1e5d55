package bgsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/moviesync/internal/infra/storage/memory"
)

type mockProber struct {
	mu  sync.Mutex
	err error
}

func (p *mockProber) Probe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *mockProber) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type mockHandler struct {
	mu    sync.Mutex
	calls []string
	err   error
	fired chan string
}

func (h *mockHandler) HandleWake(ctx context.Context, tag string) error {
	h.mu.Lock()
	h.calls = append(h.calls, tag)
	err := h.err
	h.mu.Unlock()
	if h.fired != nil {
		h.fired <- tag
	}
	return err
}

func (h *mockHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func newTestScheduler(prober Prober, handler WakeHandler) (*Scheduler, *time.Time) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewScheduler(memory.NewMemoryStorage(), prober, handler, Config{
		ProbeInterval: 10 * time.Millisecond,
		MinBackoff:    time.Minute,
		MaxBackoff:    10 * time.Minute,
	}, nil)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestExponentialBackoff(t *testing.T) {
	b := &ExponentialBackoff{InitialDelay: time.Second, MaxDelay: 5 * time.Second, MaxAttempts: 3}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := b.GetDelay(tt.attempt); got != tt.want {
			t.Errorf("GetDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	notStarted := fmt.Errorf("%w: store unavailable", ErrWakeNotStarted)
	if !b.ShouldRetry(notStarted, 2) {
		t.Error("wake that never started should retry below max attempts")
	}
	if b.ShouldRetry(notStarted, 3) {
		t.Error("max attempts reached should not retry")
	}
	if b.ShouldRetry(errors.New("upstream returned status 503"), 0) {
		t.Error("failure after the work was taken should not retry")
	}
	if b.ShouldRetry(context.Canceled, 0) {
		t.Error("cancellation should not retry")
	}
}

func TestRegister_IsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(&mockProber{}, &mockHandler{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Register(ctx, "background-search-query"); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if err := s.Register(ctx, ""); err == nil {
		t.Error("expected error for empty tag")
	}

	regs, err := s.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(regs) != 1 || regs[0].Tag != "background-search-query" {
		t.Errorf("registrations = %+v", regs)
	}
}

func TestRunOnce_OfflineDoesNotFire(t *testing.T) {
	prober := &mockProber{err: errors.New("dial tcp: no route to host")}
	handler := &mockHandler{}
	s, _ := newTestScheduler(prober, handler)
	ctx := context.Background()

	_ = s.Register(ctx, "background-search-query")
	s.RunOnce(ctx)

	if handler.count() != 0 {
		t.Error("handler fired while offline")
	}
	if s.Online() {
		t.Error("scheduler should report offline")
	}
	if regs, _ := s.Pending(ctx); len(regs) != 1 {
		t.Error("registration should survive while offline")
	}
}

func TestRunOnce_OnlineFiresOnce(t *testing.T) {
	prober := &mockProber{}
	handler := &mockHandler{}
	s, _ := newTestScheduler(prober, handler)
	ctx := context.Background()

	_ = s.Register(ctx, "background-search-query")
	_ = s.Register(ctx, "background-movie-details")
	s.RunOnce(ctx)
	s.RunOnce(ctx)

	if handler.count() != 2 {
		t.Fatalf("handler calls = %v, want one per tag", handler.calls)
	}
	if !s.Online() {
		t.Error("scheduler should report online")
	}
	if regs, _ := s.Pending(ctx); len(regs) != 0 {
		t.Errorf("registrations left after firing: %+v", regs)
	}
}

func TestRunOnce_FailedWakeIsNotFiredAgain(t *testing.T) {
	handler := &mockHandler{err: errors.New("retry details: status 503")}
	s, clock := newTestScheduler(&mockProber{}, handler)
	ctx := context.Background()

	_ = s.Register(ctx, "background-movie-details")
	s.RunOnce(ctx)

	if regs, _ := s.Pending(ctx); len(regs) != 0 {
		t.Fatalf("registrations after failed wake = %+v, want none", regs)
	}

	*clock = clock.Add(time.Hour)
	s.RunOnce(ctx)
	if handler.count() != 1 {
		t.Errorf("handler calls = %d, want 1", handler.count())
	}
}

func TestRunOnce_WakeNotStartedBacksOff(t *testing.T) {
	handler := &mockHandler{err: fmt.Errorf("%w: connection refused", ErrWakeNotStarted)}
	s, clock := newTestScheduler(&mockProber{}, handler)
	ctx := context.Background()

	_ = s.Register(ctx, "background-search-query")
	s.RunOnce(ctx)

	regs, _ := s.Pending(ctx)
	if len(regs) != 1 || regs[0].Attempts != 1 {
		t.Fatalf("registrations = %+v, want one with 1 attempt", regs)
	}
	if want := clock.Add(time.Minute); !regs[0].NotBefore.Equal(want) {
		t.Errorf("NotBefore = %v, want %v", regs[0].NotBefore, want)
	}

	// Not yet due.
	s.RunOnce(ctx)
	if handler.count() != 1 {
		t.Fatalf("fired before backoff elapsed, calls = %d", handler.count())
	}

	*clock = clock.Add(time.Minute)
	s.RunOnce(ctx)
	*clock = clock.Add(2 * time.Minute)
	s.RunOnce(ctx)

	if handler.count() != 3 {
		t.Fatalf("handler calls = %d, want 3", handler.count())
	}
	if regs, _ := s.Pending(ctx); len(regs) != 0 {
		t.Errorf("registration should be dropped after max attempts, got %+v", regs)
	}
}

func TestFire_DispatchesImmediately(t *testing.T) {
	prober := &mockProber{err: errors.New("offline")}
	handler := &mockHandler{}
	s, _ := newTestScheduler(prober, handler)
	ctx := context.Background()

	_ = s.Register(ctx, "background-movie-details")
	found, err := s.Fire(ctx, "background-movie-details")
	if err != nil || !found {
		t.Fatalf("Fire = %v, %v", found, err)
	}
	if handler.count() != 1 {
		t.Error("Fire should call the handler")
	}

	found, err = s.Fire(ctx, "background-movie-details")
	if err != nil || found {
		t.Errorf("second Fire = %v, %v; want not found", found, err)
	}
}

func TestRun_FiresOnRegister(t *testing.T) {
	handler := &mockHandler{fired: make(chan string, 1)}
	s := NewScheduler(memory.NewMemoryStorage(), &mockProber{}, handler, Config{ProbeInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	if err := s.Register(ctx, "background-search-query"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	select {
	case tag := <-handler.fired:
		if tag != "background-search-query" {
			t.Errorf("fired %q", tag)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("registration was not fired")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestRun_RequiresHandler(t *testing.T) {
	s := NewScheduler(memory.NewMemoryStorage(), &mockProber{}, nil, Config{}, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error without a handler")
	}
}

type deleteFailingStore struct {
	*memory.MemoryStorage
}

func (s *deleteFailingStore) Delete(ctx context.Context, key string) error {
	return errors.New("read-only replica")
}

func TestPending_DropsUnreadableRegistration(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryStorage()
	s := NewScheduler(store, &mockProber{}, &mockHandler{}, Config{}, nil)

	_ = s.Register(ctx, "background-search-query")
	_ = store.Set(ctx, registrationPrefix+"background-movie-details", []byte("{broken"))

	regs, err := s.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(regs) != 1 || regs[0].Tag != "background-search-query" {
		t.Errorf("registrations = %+v", regs)
	}
	if keys, _ := store.Keys(ctx, registrationPrefix); len(keys) != 1 {
		t.Errorf("unreadable registration should be deleted, keys = %v", keys)
	}

	// A failed delete is logged and the listing still succeeds.
	failing := &deleteFailingStore{MemoryStorage: store}
	_ = store.Set(ctx, registrationPrefix+"background-movie-details", []byte("{broken"))
	s = NewScheduler(failing, &mockProber{}, &mockHandler{}, Config{}, nil)
	regs, err = s.Pending(ctx)
	if err != nil || len(regs) != 1 {
		t.Errorf("Pending with failing delete = %+v, %v", regs, err)
	}
}
