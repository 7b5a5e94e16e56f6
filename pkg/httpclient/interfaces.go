package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	// Status is the full status line, e.g. "404 Not Found".
	Status() string
}

// BasicAuth carries credentials for the Authorization: Basic header.
type BasicAuth struct {
	Username string
	Password string
}

// GetOptions tunes a single GET request. The zero value sends a bare request.
type GetOptions struct {
	Query     map[string]string
	Headers   map[string]string
	BasicAuth *BasicAuth
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, opts GetOptions) (Response, error)
}
