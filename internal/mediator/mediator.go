// Package mediator answers movie data requests from the network or from a
// canned offline response, arming a durable background retry on failure.
package mediator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/moviesync/internal/bgsync"
	"github.com/vietddude/moviesync/internal/core/domain"
	"github.com/vietddude/moviesync/internal/infra/assets"
	"github.com/vietddude/moviesync/internal/infra/movieapi"
	"github.com/vietddude/moviesync/internal/infra/storage"
	"github.com/vietddude/moviesync/internal/metrics"
	"github.com/vietddude/moviesync/internal/notify"
)

// OfflineHeader is set on responses that carry the offline placeholder.
const OfflineHeader = "X-Moviesync-Offline"

// Outcome tells the caller what kind of response it received.
type Outcome string

const (
	OutcomeLive            Outcome = "live"
	OutcomeOfflineFallback Outcome = "offline"
	OutcomeFailed          Outcome = "failed"
)

// Result is the response to a mediated request.
type Result struct {
	Outcome Outcome
	// Response is the upstream response for live results, the offline payload
	// for fallbacks, and whatever the upstream returned (possibly nil) for failures.
	Response *movieapi.Response
	// Err is the failure cause for fallbacks and failed retries.
	Err error
}

// Offline reports whether the response is the offline placeholder.
func (r *Result) Offline() bool {
	return r != nil && r.Outcome == OutcomeOfflineFallback
}

// RetryScheduler wakes the mediator once connectivity returns.
type RetryScheduler interface {
	Register(ctx context.Context, tag string) error
}

// ResultStager persists retried results for the next foreground launch.
type ResultStager interface {
	Stage(ctx context.Context, class domain.RequestClass, data json.RawMessage) error
}

// Deps are the collaborators of a Mediator.
type Deps struct {
	Store    storage.KeyValueStore
	Cache    assets.Matcher
	Fetcher  movieapi.Fetcher
	Stager   ResultStager
	Notifier notify.Notifier
	// Scheduler may be nil when no background sync is available. Failed
	// requests then get the offline response without a retry being armed.
	Scheduler RetryScheduler
	Logger    *slog.Logger
}

// Mediator intercepts search and detail requests.
type Mediator struct {
	store     storage.KeyValueStore
	cache     assets.Matcher
	fetcher   movieapi.Fetcher
	stager    ResultStager
	notifier  notify.Notifier
	scheduler RetryScheduler
	log       *slog.Logger
}

// New creates a Mediator.
func New(deps Deps) *Mediator {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Mediator{
		store:     deps.Store,
		cache:     deps.Cache,
		fetcher:   deps.Fetcher,
		stager:    deps.Stager,
		notifier:  deps.Notifier,
		scheduler: deps.Scheduler,
		log:       log.With("component", "mediator"),
	}
}

// Handle answers a request of class for payload. First attempts never fail:
// on a network failure they resolve to the offline payload and arm a retry.
// Retry attempts report failures as OutcomeFailed and never arm another retry.
// The only errors returned are for invalid input.
func (m *Mediator) Handle(
	ctx context.Context,
	class domain.RequestClass,
	payload string,
	isRetryAttempt bool,
) (*Result, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	resp, failure := m.fetch(ctx, class, payload)
	if failure == nil {
		metrics.RequestsTotal.WithLabelValues(string(class), string(OutcomeLive)).Inc()
		return &Result{Outcome: OutcomeLive, Response: resp}, nil
	}

	if isRetryAttempt {
		metrics.RequestsTotal.WithLabelValues(string(class), string(OutcomeFailed)).Inc()
		return &Result{Outcome: OutcomeFailed, Response: resp, Err: failure}, nil
	}

	m.log.Info("Live fetch failed, serving offline response",
		"class", class, "payload", payload, "error", failure)

	// The caller may already be gone; arming must still complete.
	bg := context.WithoutCancel(ctx)
	m.arm(bg, class, payload)

	metrics.RequestsTotal.WithLabelValues(string(class), string(OutcomeOfflineFallback)).Inc()
	return &Result{
		Outcome:  OutcomeOfflineFallback,
		Response: m.offlineResponse(bg),
		Err:      failure,
	}, nil
}

func (m *Mediator) fetch(
	ctx context.Context,
	class domain.RequestClass,
	payload string,
) (*movieapi.Response, error) {
	start := time.Now()
	resp, err := m.fetcher.Fetch(ctx, class, payload)
	metrics.UpstreamLatency.WithLabelValues(string(class)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(string(class), "transport").Inc()
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp == nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(string(class), "transport").Inc()
		return nil, fmt.Errorf("%w: no response", ErrTransport)
	}
	if !resp.OK() {
		metrics.UpstreamErrorsTotal.WithLabelValues(string(class), "status").Inc()
		return resp, &StatusError{Code: resp.StatusCode}
	}
	return resp, nil
}

// arm writes the pending request for class and registers its retry tag.
// Any failure is logged: the caller gets the offline response regardless.
func (m *Mediator) arm(ctx context.Context, class domain.RequestClass, payload string) {
	if m.scheduler == nil {
		m.log.Debug("No background sync available, retry not armed", "class", class)
		return
	}

	tag := class.RetryTag()
	pending := domain.PendingRequest{Class: class, Payload: payload}
	if err := storage.SetJSON(ctx, m.store, tag, pending); err != nil {
		m.log.Warn("Failed to store pending request", "class", class, "error", err)
		return
	}
	if err := m.scheduler.Register(ctx, tag); err != nil {
		m.log.Warn("Failed to register background sync", "tag", tag, "error", err)
		return
	}
	metrics.RetriesArmedTotal.WithLabelValues(string(class)).Inc()
	m.log.Debug("Retry armed", "class", class, "tag", tag, "payload", payload)
}

func (m *Mediator) offlineResponse(ctx context.Context) *movieapi.Response {
	entry := assets.DefaultOfflinePayload()
	if m.cache != nil {
		cached, found, err := m.cache.Match(ctx, assets.OfflinePath)
		switch {
		case err != nil:
			m.log.Warn("Failed to read offline payload from cache", "error", err)
		case !found:
			m.log.Warn("Offline payload missing from cache, using built-in copy")
		default:
			entry = *cached
		}
	}

	header := make(http.Header)
	header.Set("Content-Type", entry.ContentType)
	header.Set(OfflineHeader, "1")
	return &movieapi.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       entry.Body,
	}
}

// HandleWake re-drives the pending request registered under tag. It is a
// no-op when nothing is pending. The pending request is cleared before the
// retry runs, so a failed or interrupted retry is not attempted again.
func (m *Mediator) HandleWake(ctx context.Context, tag string) error {
	class, ok := domain.ClassForTag(tag)
	if !ok {
		m.log.Debug("Ignoring wake for unknown tag", "tag", tag)
		return nil
	}

	var pending domain.PendingRequest
	found, err := storage.TakeJSON(ctx, m.store, tag, &pending)
	if err != nil {
		return fmt.Errorf("%w: failed to read pending %s request: %w", bgsync.ErrWakeNotStarted, class, err)
	}
	if !found || strings.TrimSpace(pending.Payload) == "" {
		metrics.RetriesTotal.WithLabelValues(string(class), "noop").Inc()
		return nil
	}

	m.log.Info("Retrying request", "class", class, "payload", pending.Payload)

	res, err := m.Handle(ctx, class, pending.Payload, true)
	if err != nil {
		metrics.RetriesTotal.WithLabelValues(string(class), "failed").Inc()
		return fmt.Errorf("retry %s: %w", class, err)
	}
	if res.Outcome != OutcomeLive {
		metrics.RetriesTotal.WithLabelValues(string(class), "failed").Inc()
		if ctx.Err() != nil {
			m.log.Warn("Retry interrupted after pending request was cleared",
				"class", class, "payload", pending.Payload, "error", ErrRetryLost)
			return fmt.Errorf("%w: %s %q: %v", ErrRetryLost, class, pending.Payload, ctx.Err())
		}
		m.log.Info("Retry failed", "class", class, "payload", pending.Payload, "error", res.Err)
		return fmt.Errorf("retry %s %q: %w", class, pending.Payload, res.Err)
	}

	data, err := stagedData(class, res.Response.Body)
	if err != nil {
		metrics.RetriesTotal.WithLabelValues(string(class), "failed").Inc()
		return fmt.Errorf("retry %s: %w", class, err)
	}
	if err := m.stager.Stage(ctx, class, data); err != nil {
		metrics.RetriesTotal.WithLabelValues(string(class), "failed").Inc()
		return err
	}

	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, notify.ForResult(class, pending.Payload)); err != nil {
			m.log.Warn("Notification failed", "class", class, "error", err)
		}
	}

	metrics.RetriesTotal.WithLabelValues(string(class), "success").Inc()
	m.log.Info("Retry succeeded, result staged", "class", class, "payload", pending.Payload)
	return nil
}

// stagedData extracts what the foreground expects from a retried response:
// the movie list for searches, the whole record for detail lookups.
func stagedData(class domain.RequestClass, body []byte) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, errors.New("decode response: invalid JSON body")
	}
	if class != domain.ClassSearch {
		return json.RawMessage(body), nil
	}

	var envelope struct {
		Search json.RawMessage `json:"Search"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(envelope.Search) == 0 || string(envelope.Search) == "null" {
		return json.RawMessage(`[]`), nil
	}
	return envelope.Search, nil
}
