package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vietddude/moviesync/internal/core/domain"
	"github.com/vietddude/moviesync/internal/mediator"
)

// MovieSource is the foreground's view of the mediator.
type MovieSource interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
	Details(ctx context.Context, id string) (*domain.Movie, bool, error)
}

// SearchResult is a decoded search answer.
type SearchResult struct {
	Movies  []domain.Movie
	Offline bool
	Message string
}

var _ MovieSource = (*Client)(nil)

// Client talks to the background mediator over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultMediatorBind = "127.0.0.1:8080"
	defaultUserAgent    = "moviesync-cli/1.0"
	requestTimeout      = 15 * time.Second
)

// NewClient builds a Client for the mediator listening at bind (host:port or URL).
func NewClient(bind string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(bind)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// Search asks the mediator for movies matching query.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	values := url.Values{}
	values.Set("s", query)
	var payload domain.SearchResponse
	offline, err := c.get(ctx, &url.URL{Path: "/search", RawQuery: values.Encode()}, &payload)
	if err != nil {
		return nil, err
	}
	return &SearchResult{
		Movies:  payload.Search,
		Offline: offline || payload.Offline,
		Message: payload.Error,
	}, nil
}

// Details asks the mediator for the full record of id. offline is true when
// the answer is the offline placeholder.
func (c *Client) Details(ctx context.Context, id string) (*domain.Movie, bool, error) {
	values := url.Values{}
	values.Set("i", id)
	var payload domain.DetailsResponse
	offline, err := c.get(ctx, &url.URL{Path: "/details", RawQuery: values.Encode()}, &payload)
	if err != nil {
		return nil, false, err
	}
	if offline || payload.Offline {
		return nil, true, nil
	}
	return &payload.Movie, false, nil
}

// Wake fires a background sync tag immediately.
func (c *Client) Wake(ctx context.Context, tag string) (bool, error) {
	var payload struct {
		Registered bool `json:"registered"`
	}
	if _, err := c.do(ctx, http.MethodPost, &url.URL{Path: "/sync/" + url.PathEscape(tag)}, &payload); err != nil {
		return false, err
	}
	return payload.Registered, nil
}

func (c *Client) get(ctx context.Context, rel *url.URL, dest any) (bool, error) {
	return c.do(ctx, http.MethodGet, rel, dest)
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, dest any) (bool, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return false, fmt.Errorf("mediator %s returned status %d: %s", rel.Path, resp.StatusCode, apiErr.Error)
		}
		return false, fmt.Errorf("mediator %s returned status %d", rel.Path, resp.StatusCode)
	}

	offline := resp.Header.Get(mediator.OfflineHeader) != ""
	if dest == nil {
		return offline, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return offline, fmt.Errorf("decode response: %w", err)
	}
	return offline, nil
}

func parseBaseURL(bind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(bind)
	if trimmed == "" {
		trimmed = defaultMediatorBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse mediator url %q: %w", bind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
