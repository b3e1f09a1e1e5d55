package movieapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/vietddude/moviesync/internal/core/domain"
)

// Style selects the upstream wire format.
type Style string

const (
	// StyleProxy talks to the offline-support proxy: /api/movies/<q>, /api/movie/<id>
	StyleProxy Style = "proxy"
	// StyleOMDb talks to the public OMDb API directly: /?apikey=<k>&s=<q>, /?apikey=<k>&i=<id>
	StyleOMDb Style = "omdb"
)

const (
	defaultUserAgent = "moviesync/1.0"
	defaultTimeout   = 10 * time.Second
	maxBodyBytes     = 4 << 20
)

// Config holds upstream settings.
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	Style        Style         `yaml:"style"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	RateLimitRPS float64       `yaml:"rate_limit_rps"` // <= 0 disables
	UserAgent    string        `yaml:"user_agent"`
}

// Response is a raw upstream response. The mediator hands it back untouched.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is a success status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher performs one upstream call for a request class. A returned error
// means no response was obtained; non-success statuses come back as a Response.
type Fetcher interface {
	Fetch(ctx context.Context, class domain.RequestClass, payload string) (*Response, error)
}

// Client talks to the movie-data API.
type Client struct {
	baseURL   *url.URL
	style     Style
	apiKey    string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

var _ Fetcher = (*Client)(nil)

// NewClient builds a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base_url %q must be absolute", cfg.BaseURL)
	}
	base.RawQuery = ""
	base.Fragment = ""
	base.Path = strings.TrimSuffix(base.Path, "/")

	style := cfg.Style
	if style == "" {
		style = StyleProxy
	}
	if style != StyleProxy && style != StyleOMDb {
		return nil, fmt.Errorf("unknown upstream style %q", style)
	}
	if style == StyleOMDb && cfg.APIKey == "" {
		return nil, fmt.Errorf("omdb style requires api_key")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if _, err := http2.ConfigureTransports(transport); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := int(cfg.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		baseURL:   base,
		style:     style,
		apiKey:    cfg.APIKey,
		http:      &http.Client{Timeout: timeout, Transport: transport},
		limiter:   limiter,
		userAgent: ua,
	}, nil
}

// Fetch performs the class-specific request for payload.
func (c *Client) Fetch(ctx context.Context, class domain.RequestClass, payload string) (*Response, error) {
	reqURL, err := c.endpoint(class, payload)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, reqURL)
}

// Probe checks whether the upstream host answers at all. Any HTTP response,
// whatever its status, counts as reachable.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.get(ctx, c.baseURL.String())
	return err
}

func (c *Client) endpoint(class domain.RequestClass, payload string) (string, error) {
	u := *c.baseURL
	switch c.style {
	case StyleOMDb:
		values := url.Values{}
		values.Set("apikey", c.apiKey)
		switch class {
		case domain.ClassSearch:
			values.Set("s", payload)
		case domain.ClassDetails:
			values.Set("i", payload)
		default:
			return "", fmt.Errorf("unknown request class %q", class)
		}
		u.Path += "/"
		u.RawQuery = values.Encode()
	default:
		switch class {
		case domain.ClassSearch:
			u.Path += "/api/movies/" + payload
			u.RawPath = c.baseURL.EscapedPath() + "/api/movies/" + url.PathEscape(payload)
		case domain.ClassDetails:
			u.Path += "/api/movie/" + payload
			u.RawPath = c.baseURL.EscapedPath() + "/api/movie/" + url.PathEscape(payload)
		default:
			return "", fmt.Errorf("unknown request class %q", class)
		}
	}
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, reqURL string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}
