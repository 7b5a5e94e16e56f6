// Package cms fetches page content from the AreWeHeadlessYet Wagtail API and
// normalizes its keys to camelCase for the frontend.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/areweheadlessyet/pkg/httpclient"
)

const (
	// StagingInstance selects basic authentication on every request.
	StagingInstance = "staging"

	pagesPrefix    = "api/v2/pages/"
	defaultTimeout = 15 * time.Second
)

// Config is resolved once at startup and handed to New.
type Config struct {
	Instance     string
	AuthUser     string
	AuthPassword string
	BaseURL      string
	Timeout      time.Duration
}

// Params are query parameters passed verbatim to the pages endpoint.
type Params map[string]string

// Value is an untyped JSON value as decoded from a response body.
// Numbers are kept as json.Number.
type Value = any

// Logger is the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
}

// RequestObserver receives the outcome of every API round trip.
type RequestObserver interface {
	ObserveRequest(outcome string, elapsed time.Duration)
}

// Client issues requests against the pages API. It holds no mutable state and
// is safe for concurrent use.
type Client struct {
	cfg      Config
	baseURL  string
	http     httpclient.Client
	log      Logger
	observer RequestObserver
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets a logger for request diagnostics.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver sets a request observer, typically a metrics recorder.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// New builds a Client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("cms base url is empty")
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		cfg:      cfg,
		baseURL:  base,
		http:     httpclient.NewRestyClient(timeout),
		log:      nopLogger{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch issues GET {BaseURL}api/v2/pages/{path}?{params} and returns the
// decoded body. Keys are left as the backend sent them.
func (c *Client) Fetch(ctx context.Context, path string, params Params) (Value, error) {
	url := c.baseURL + pagesPrefix + path
	opts := httpclient.GetOptions{
		Query:   params,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if c.cfg.Instance == StagingInstance {
		// credentials are encoded as-is, even when unset
		opts.BasicAuth = &httpclient.BasicAuth{
			Username: c.cfg.AuthUser,
			Password: c.cfg.AuthPassword,
		}
	}

	start := time.Now()
	resp, err := c.http.Get(ctx, url, opts)
	elapsed := time.Since(start)
	if err != nil {
		c.observer.ObserveRequest("error", elapsed)
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	c.observer.ObserveRequest(strconv.Itoa(resp.StatusCode()), elapsed)
	c.log.DebugObj("cms request completed", "cms_request", map[string]any{
		"path":       path,
		"params":     params,
		"status":     resp.StatusCode(),
		"elapsed_ms": elapsed.Milliseconds(),
	})

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &RequestError{
			StatusCode: resp.StatusCode(),
			Status:     statusLine(resp),
			URL:        url,
		}
	}

	value, err := decodeJSON(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return value, nil
}

func decodeJSON(body []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func statusLine(resp httpclient.Response) string {
	if s := strings.TrimSpace(resp.Status()); s != "" {
		return s
	}
	return fmt.Sprintf("%d %s", resp.StatusCode(), http.StatusText(resp.StatusCode()))
}

type nopLogger struct{}

func (nopLogger) DebugObj(string, string, interface{}) {}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, time.Duration) {}
