// Package server exposes the mediator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/moviesync/internal/core/domain"
	"github.com/vietddude/moviesync/internal/health"
	"github.com/vietddude/moviesync/internal/infra/assets"
	"github.com/vietddude/moviesync/internal/mediator"
)

// Config holds the listen address of the mediator.
type Config struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Mediator handles movie data requests.
type Mediator interface {
	Handle(ctx context.Context, class domain.RequestClass, payload string, isRetryAttempt bool) (*mediator.Result, error)
}

// SyncTrigger fires a background sync tag on demand.
type SyncTrigger interface {
	Fire(ctx context.Context, tag string) (bool, error)
}

// Deps are the handlers' collaborators. Sync, Assets and Health are optional.
type Deps struct {
	Mediator Mediator
	Sync     SyncTrigger
	Assets   assets.Matcher
	Health   *health.Monitor
	Logger   *slog.Logger
}

// Server serves the mediator endpoints.
type Server struct {
	deps   Deps
	log    *slog.Logger
	server *http.Server
}

// NewServer creates a new mediator server.
func NewServer(cfg Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{deps: deps, log: log.With("component", "server")}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /details", s.handleDetails)
	mux.HandleFunc("POST /sync/{tag}", s.handleSync)
	if deps.Health != nil {
		mux.HandleFunc("GET /health", deps.Health.HandleHealth)
		mux.HandleFunc("GET /health/detailed", deps.Health.HandleDetailed)
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /", s.handleAsset)

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      WithRequestID(Logging(s.log)(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. It returns nil after Stop.
func (s *Server) Start() error {
	s.log.Info("Mediator listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.mediate(w, r, domain.ClassSearch, r.URL.Query().Get("s"))
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	s.mediate(w, r, domain.ClassDetails, r.URL.Query().Get("i"))
}

func (s *Server) mediate(w http.ResponseWriter, r *http.Request, class domain.RequestClass, payload string) {
	res, err := s.deps.Mediator.Handle(r.Context(), class, payload, false)
	if err != nil {
		if errors.Is(err, mediator.ErrEmptyPayload) || errors.Is(err, mediator.ErrUnknownClass) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if res.Response == nil {
		writeError(w, http.StatusBadGateway, res.Err)
		return
	}

	for _, h := range []string{"Content-Type", mediator.OfflineHeader} {
		if v := res.Response.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(res.Response.StatusCode)
	_, _ = w.Write(res.Response.Body)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sync == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("background sync is not available"))
		return
	}
	tag := r.PathValue("tag")
	if _, ok := domain.ClassForTag(tag); !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown sync tag %q", tag))
		return
	}

	registered, err := s.deps.Sync.Fire(r.Context(), tag)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tag": tag, "registered": registered})
}

// handleAsset serves the installed app shell from the asset cache.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assets == nil {
		http.NotFound(w, r)
		return
	}
	entry, found, err := s.deps.Assets.Match(r.Context(), r.URL.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", entry.ContentType)
	_, _ = w.Write(entry.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
