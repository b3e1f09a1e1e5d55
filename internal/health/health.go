// Package health reports the state of the background mediator.
package health

import (
	"time"

	"github.com/vietddude/moviesync/internal/bgsync"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ComponentHealth is the result of a single dependency check.
type ComponentHealth struct {
	Name   string       `json:"name"`
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// Report contains the full mediator health report.
type Report struct {
	Status     SystemStatus          `json:"status"`
	Online     bool                  `json:"online"`
	Components []ComponentHealth     `json:"components"`
	Pending    []bgsync.Registration `json:"pending_syncs"`
	Staged     map[string]bool       `json:"staged"`
	CheckedAt  time.Time             `json:"checked_at"`
}
