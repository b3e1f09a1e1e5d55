package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vietddude/moviesync/internal/core/domain"
)

type recordingNotifier struct {
	got []domain.Notification
	err error
}

func (r *recordingNotifier) Notify(ctx context.Context, n domain.Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func granted(v bool) PermissionFunc {
	return func(ctx context.Context) bool { return v }
}

func TestGate_WithoutPermissionIsSilentNoop(t *testing.T) {
	rec := &recordingNotifier{}
	g := NewGate(rec, granted(false), nil)

	if err := g.Notify(context.Background(), ForResult(domain.ClassSearch, "batman")); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(rec.got) != 0 {
		t.Errorf("expected no delivery, got %d", len(rec.got))
	}

	g = NewGate(rec, nil, nil)
	_ = g.Notify(context.Background(), ForResult(domain.ClassSearch, "batman"))
	if len(rec.got) != 0 {
		t.Error("nil permission source must be treated as not granted")
	}
}

func TestGate_DeliversWhenGranted(t *testing.T) {
	rec := &recordingNotifier{}
	g := NewGate(rec, granted(true), nil)

	if err := g.Notify(context.Background(), ForResult(domain.ClassDetails, "tt0372784")); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(rec.got))
	}
}

func TestGate_SwallowsDeliveryErrors(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("bridge down")}
	g := NewGate(rec, granted(true), nil)

	if err := g.Notify(context.Background(), ForResult(domain.ClassSearch, "x")); err != nil {
		t.Fatalf("best-effort notify should not fail, got %v", err)
	}
}

func TestForResult_Messages(t *testing.T) {
	n := ForResult(domain.ClassSearch, "batman")
	if n.Title != `Your search for "batman" is now ready` {
		t.Errorf("title = %q", n.Title)
	}
	if n.Icon != "/favicon.svg" || len(n.Actions) != 1 || n.Actions[0].Action != "view-results" {
		t.Errorf("unexpected notification %+v", n)
	}
	if n.ID == "" {
		t.Error("notification should carry an id")
	}

	d := ForResult(domain.ClassDetails, "tt0372784")
	if d.Title != "Movie details are now ready" || d.Actions[0].Action != "view-details" {
		t.Errorf("unexpected details notification %+v", d)
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got domain.Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad content type", http.StatusBadRequest)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	w := NewWebhookNotifier(server.URL, 0)
	if err := w.Notify(context.Background(), ForResult(domain.ClassSearch, "batman")); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if !strings.Contains(got.Title, "batman") {
		t.Errorf("webhook received %+v", got)
	}
}

func TestWebhookNotifier_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	err := NewWebhookNotifier(server.URL, 0).Notify(context.Background(), ForResult(domain.ClassSearch, "x"))
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestMulti_DeliversToAll(t *testing.T) {
	a := &recordingNotifier{err: errors.New("a failed")}
	b := &recordingNotifier{}

	err := Multi{a, b}.Notify(context.Background(), ForResult(domain.ClassSearch, "x"))
	if err == nil {
		t.Error("expected first error to be returned")
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("expected delivery to both notifiers, got %d and %d", len(a.got), len(b.got))
	}
}
