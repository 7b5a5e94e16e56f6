package publishers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/areweheadlessyet/internal/domain"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func changeEvent(kind string) Event {
	return Event{Change: domain.PageChange{Key: kind + ":1", Kind: kind}}
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
	})

	count, err := fanout.Publish(context.Background(), changeEvent(domain.KindTopicPage))
	assert.Equal(t, 1, count)
	require.Error(t, err)
	assert.ErrorContains(t, err, `http publisher "bad"`)
}

func TestFanoutStopsOnCancelledContext(t *testing.T) {
	stub := &stubPublisher{id: "ok", typ: "http"}
	fanout := NewFanout([]Publisher{stub, nil})
	require.Equal(t, 1, fanout.Size(), "nil publishers should be dropped")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	count, err := fanout.Publish(ctx, changeEvent(domain.KindHomePage))
	assert.Zero(t, count)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stub.calls, "publisher should not be called after cancellation")
}

func TestFanoutSkipsPublishersFilteredByKind(t *testing.T) {
	everything := &stubPublisher{id: "all", typ: "http"}
	topics := &stubPublisher{id: "topics", typ: "sns"}
	fanout := NewFanout([]Publisher{
		everything,
		&kindFilter{Publisher: topics, kinds: []string{domain.KindTopicPage}},
	})

	count, err := fanout.Publish(context.Background(), changeEvent(domain.KindHomePage))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Zero(t, topics.calls)

	count, err = fanout.Publish(context.Background(), changeEvent(domain.KindTopicPage))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, topics.calls)
	assert.Equal(t, 2, everything.calls)
}

func TestFanoutAllFilteredIsNotAFailure(t *testing.T) {
	failing := &stubPublisher{id: "home", typ: "http", err: errors.New("unreachable")}
	fanout := NewFanout([]Publisher{&kindFilter{Publisher: failing, kinds: []string{domain.KindHomePage}}})

	count, err := fanout.Publish(context.Background(), changeEvent(domain.KindTopicPage))
	assert.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, failing.calls)
}

func TestFanoutCloseClosesPublishers(t *testing.T) {
	plain := &stubPublisher{id: "ok", typ: "gcppubsub"}
	filtered := &stubPublisher{id: "filtered", typ: "gcppubsub"}
	fanout := NewFanout([]Publisher{plain, &kindFilter{Publisher: filtered, kinds: []string{domain.KindHomePage}}})

	require.NoError(t, fanout.Close())
	assert.True(t, plain.closed)
	assert.True(t, filtered.closed, "kind filter should forward Close")
}

func TestBuildAllWrapsPublishersWithKinds(t *testing.T) {
	pubs, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "all", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
		{ID: "home", Type: TypeHTTP, Kinds: []string{domain.KindHomePage}, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, pubs, 2)

	_, wrapped := pubs[0].(kindAware)
	assert.False(t, wrapped)

	ka, ok := pubs[1].(kindAware)
	require.True(t, ok)
	assert.True(t, ka.Accepts(domain.KindHomePage))
	assert.False(t, ka.Accepts(domain.KindTopicPage))
	assert.Equal(t, "home", pubs[1].ID())
}

func TestBuildAllClosesBuiltPublishersOnFailure(t *testing.T) {
	built := &stubPublisher{id: "first", typ: "stub"}
	reg := NewRegistry().Register("stub", func(context.Context, PublisherConfig, Logger) (Publisher, error) {
		return built, nil
	})

	_, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "kafka"},
	}, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown type "kafka" (known: stub)`)
	assert.True(t, built.closed)
}

func TestDefaultRegistryTypes(t *testing.T) {
	assert.Equal(t, []string{TypeGCPPubSub, TypeHTTP, TypeSNS, TypeSQS}, DefaultRegistry().Types())
}
