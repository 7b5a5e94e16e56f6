package cms

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/areweheadlessyet/pkg/httpclient"
)

// recordedRequest captures what the backend saw.
type recordedRequest struct {
	Path  string
	Query map[string]string
	Auth  string
}

// fakeBackend serves canned bodies keyed by request path.
type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	bodies   map[string]string
}

func newFakeBackend(t *testing.T, bodies map[string]string) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{bodies: bodies}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	query := make(map[string]string)
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Path:  r.URL.Path,
		Query: query,
		Auth:  r.Header.Get("Authorization"),
	})
	status := f.status
	body, ok := f.bodies[r.URL.Path]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeBackend) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func newTestClient(t *testing.T, srv *httptest.Server, cfg Config, opts ...Option) *Client {
	t.Helper()
	cfg.BaseURL = srv.URL + "/"
	c, err := New(cfg, opts...)
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "  "})
	require.Error(t, err)
}

func TestNewAddsTrailingSlash(t *testing.T) {
	c, err := New(Config{BaseURL: "https://cms.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://cms.example.com/", c.baseURL)
}

func TestFetchBuildsURLAndQuery(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]string{
		"/api/v2/pages/": `{"meta":{"total_count":0},"items":[]}`,
	})
	c := newTestClient(t, srv, Config{})

	got, err := c.Fetch(context.Background(), "", Params{"type": "blog.BlogPage", "fields": "*"})
	require.NoError(t, err)

	env, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, env, "meta")

	reqs := fb.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/v2/pages/", reqs[0].Path)
	assert.Equal(t, map[string]string{"type": "blog.BlogPage", "fields": "*"}, reqs[0].Query)
	assert.Empty(t, reqs[0].Auth)
}

func TestFetchAddsBasicAuthOnStaging(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]string{"/api/v2/pages/": `{"items":[]}`})
	c := newTestClient(t, srv, Config{
		Instance:     StagingInstance,
		AuthUser:     "editor",
		AuthPassword: "s3cret",
	})

	_, err := c.Fetch(context.Background(), "", Params{})
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("editor:s3cret"))
	assert.Equal(t, want, fb.recorded()[0].Auth)
}

func TestFetchEncodesMissingStagingCredentials(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]string{"/api/v2/pages/": `{"items":[]}`})
	c := newTestClient(t, srv, Config{Instance: StagingInstance})

	_, err := c.Fetch(context.Background(), "", nil)
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(":"))
	assert.Equal(t, want, fb.recorded()[0].Auth)
}

func TestFetchNonStagingInstanceSendsNoAuth(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]string{"/api/v2/pages/": `{"items":[]}`})
	c := newTestClient(t, srv, Config{Instance: "production", AuthUser: "u", AuthPassword: "p"})

	_, err := c.Fetch(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, fb.recorded()[0].Auth)
}

func TestFetchNon2xxIsRequestError(t *testing.T) {
	fb, srv := newFakeBackend(t, nil)
	fb.status = http.StatusInternalServerError
	c := newTestClient(t, srv, Config{})

	_, err := c.Fetch(context.Background(), "7", nil)
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, "500 Internal Server Error", reqErr.Error())
	assert.Equal(t, srv.URL+"/api/v2/pages/7", reqErr.URL)
	assert.True(t, IsRequestError(err))
	assert.False(t, IsNotFound(err))
}

func TestFetchRejectsInvalidJSON(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]string{"/api/v2/pages/": `{"items": [`})
	c := newTestClient(t, srv, Config{})

	_, err := c.Fetch(context.Background(), "", nil)
	require.Error(t, err)
	assert.False(t, IsRequestError(err))
}

func TestFetchHonoursContextCancellation(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]string{"/api/v2/pages/": `{"items":[]}`})
	c := newTestClient(t, srv, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// stubResponse and stubHTTPClient exercise the client without a network.
type stubResponse struct {
	code   int
	status string
	body   string
}

func (s stubResponse) Body() []byte    { return []byte(s.body) }
func (s stubResponse) StatusCode() int { return s.code }
func (s stubResponse) Status() string  { return s.status }

type stubHTTPClient struct {
	resp httpclient.Response
	err  error
}

func (s stubHTTPClient) Get(context.Context, string, httpclient.GetOptions) (httpclient.Response, error) {
	return s.resp, s.err
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveRequest(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func TestFetchReportsOutcomesToObserver(t *testing.T) {
	obs := &recordingObserver{}

	ok, err := New(Config{BaseURL: "http://cms"}, WithObserver(obs),
		WithHTTPClient(stubHTTPClient{resp: stubResponse{code: 200, body: `{}`}}))
	require.NoError(t, err)
	_, err = ok.Fetch(context.Background(), "", nil)
	require.NoError(t, err)

	failing, err := New(Config{BaseURL: "http://cms"}, WithObserver(obs),
		WithHTTPClient(stubHTTPClient{err: errors.New("dial tcp: refused")}))
	require.NoError(t, err)
	_, err = failing.Fetch(context.Background(), "", nil)
	require.Error(t, err)

	assert.Equal(t, []string{"200", "error"}, obs.outcomes)
}

func TestStatusLineFallsBackToStatusText(t *testing.T) {
	c, err := New(Config{BaseURL: "http://cms"},
		WithHTTPClient(stubHTTPClient{resp: stubResponse{code: 404}}))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "", nil)
	require.Error(t, err)
	assert.Equal(t, "404 Not Found", err.Error())
}
