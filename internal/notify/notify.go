// Package notify surfaces user-visible alerts when a staged result is ready.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/moviesync/internal/core/domain"
	"github.com/vietddude/moviesync/internal/metrics"
)

const defaultIcon = "/favicon.svg"

// Notifier delivers a notification. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// PermissionSource reports whether the user granted notification permission.
type PermissionSource interface {
	NotificationsGranted(ctx context.Context) bool
}

// PermissionFunc adapts a function to PermissionSource.
type PermissionFunc func(ctx context.Context) bool

func (f PermissionFunc) NotificationsGranted(ctx context.Context) bool { return f(ctx) }

// Gate forwards notifications only when permission is granted. Without
// permission Notify is a silent no-op.
type Gate struct {
	next       Notifier
	permission PermissionSource
	log        *slog.Logger
}

// NewGate wraps next with a permission check.
func NewGate(next Notifier, permission PermissionSource, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{next: next, permission: permission, log: log}
}

// Notify delivers n when permitted. Delivery failures are logged, not returned.
func (g *Gate) Notify(ctx context.Context, n domain.Notification) error {
	if g.permission == nil || !g.permission.NotificationsGranted(ctx) {
		metrics.NotificationsTotal.WithLabelValues("suppressed").Inc()
		g.log.Debug("Notification permission not granted, skipping", "title", n.Title)
		return nil
	}
	if err := g.next.Notify(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		g.log.Warn("Failed to deliver notification", "title", n.Title, "error", err)
		return nil
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	return nil
}

// ForResult builds the notification announcing a staged result for class.
func ForResult(class domain.RequestClass, payload string) domain.Notification {
	n := domain.Notification{
		ID:    uuid.NewString(),
		Icon:  defaultIcon,
		Class: class,
	}
	switch class {
	case domain.ClassSearch:
		n.Title = fmt.Sprintf("Your search for %q is now ready", payload)
		n.Body = "You can access the list of movies in the app"
		n.Actions = []domain.NotificationAction{{Action: "view-results", Title: "Open app"}}
	default:
		n.Title = "Movie details are now ready"
		n.Body = "You can access the details in the app"
		n.Actions = []domain.NotificationAction{{Action: "view-details", Title: "Open app"}}
	}
	return n
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a notifier that logs at info level.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(ctx context.Context, n domain.Notification) error {
	action := ""
	if len(n.Actions) > 0 {
		action = n.Actions[0].Action
	}
	l.log.Info("🔔 "+n.Title, "body", n.Body, "action", action, "id", n.ID)
	return nil
}

// WebhookNotifier posts notifications as JSON to an HTTP endpoint, such as a
// desktop notification bridge.
type WebhookNotifier struct {
	url  string
	http *http.Client
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{url: url, http: &http.Client{Timeout: timeout}}
}

func (w *WebhookNotifier) Notify(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Multi fans a notification out to several notifiers and returns the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notification) error {
	var firstErr error
	for _, next := range m {
		if err := next.Notify(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
