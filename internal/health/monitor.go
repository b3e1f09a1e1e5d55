package health

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/vietddude/moviesync/internal/bgsync"
	"github.com/vietddude/moviesync/internal/core/domain"
)

// Check probes one dependency, such as the durable store.
type Check func(ctx context.Context) error

// SyncStatus exposes the background sync state.
type SyncStatus interface {
	Online() bool
	Pending(ctx context.Context) ([]bgsync.Registration, error)
}

// StagedReader looks at staged results without consuming them.
type StagedReader interface {
	Peek(ctx context.Context, class domain.RequestClass) (json.RawMessage, bool, error)
}

// Monitor aggregates health status from the mediator's components.
type Monitor struct {
	checks     map[string]Check
	names      []string
	sync       SyncStatus
	staged     StagedReader
	ttl        time.Duration
	lastCheck  time.Time
	lastReport *Report
	mu         sync.Mutex
}

// NewMonitor creates a monitor. Reports are reused for ttl.
func NewMonitor(syncStatus SyncStatus, staged StagedReader, ttl time.Duration) *Monitor {
	return &Monitor{
		checks: make(map[string]Check),
		sync:   syncStatus,
		staged: staged,
		ttl:    ttl,
	}
}

// AddCheck registers a named dependency check. A failing check makes the
// system critical.
func (m *Monitor) AddCheck(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.checks[name]; !ok {
		m.names = append(m.names, name)
	}
	m.checks[name] = check
}

// CheckHealth builds a report, reusing the previous one while it is fresh.
func (m *Monitor) CheckHealth(ctx context.Context) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && time.Since(m.lastCheck) < m.ttl {
		return m.lastReport
	}

	report := &Report{
		Status:    StatusHealthy,
		Staged:    make(map[string]bool),
		CheckedAt: time.Now().UTC(),
	}

	for _, name := range m.names {
		c := ComponentHealth{Name: name, Status: StatusHealthy}
		if err := m.checks[name](ctx); err != nil {
			c.Status = StatusCritical
			c.Error = err.Error()
			report.Status = StatusCritical
		}
		report.Components = append(report.Components, c)
	}

	if m.sync != nil {
		report.Online = m.sync.Online()
		if pending, err := m.sync.Pending(ctx); err == nil {
			report.Pending = pending
		}
		// Offline is expected for this system; it only degrades.
		if !report.Online && report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}

	if m.staged != nil {
		for _, class := range domain.RequestClasses {
			_, found, err := m.staged.Peek(ctx, class)
			report.Staged[string(class)] = err == nil && found
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
