package publishers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/areweheadlessyet/internal/domain"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: rebuild-hook
    type: http
    enabled: false
    http:
      url: https://example.com/hook
  - id: page-events
    type: SNS
    kinds: [" Topic_Page ", topic_page]
    sns:
      topic_arn: arn:aws:sns:eu-west-1:123456789012:page-events
      region: eu-west-1
      endpoint: http://localhost:4566
`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	enabled := reg.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "page-events", enabled[0].ID)
	assert.Equal(t, TypeSNS, enabled[0].Type)
	assert.Equal(t, []string{domain.KindTopicPage}, enabled[0].Kinds)
	assert.Equal(t, "http://localhost:4566", enabled[0].SNS.Endpoint)

	hook, ok := reg.ByID("rebuild-hook")
	require.True(t, ok)
	assert.Equal(t, httpDefaultMethod, hook.HTTP.Method)
	assert.Equal(t, httpDefaultTimeoutSeconds, hook.HTTP.TimeoutSeconds)
	assert.Empty(t, hook.Kinds)
	assert.Len(t, reg.All(), 2)
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "publishers.json",
		`{"publishers":[{"id":"pubsub","type":"gcppubsub","kinds":["home_page"],"gcppubsub":{"project_id":"p","topic":"t"}}]}`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	all := reg.All()
	require.Len(t, all, 1)
	assert.Equal(t, "t", all[0].GCP.Topic)
	assert.Equal(t, []string{domain.KindHomePage}, all[0].Kinds)
}

func TestLoadRegistryAllowsEmptyList(t *testing.T) {
	reg, err := LoadRegistry(writeFile(t, "publishers.yml", "publishers: []\n"))
	require.NoError(t, err)
	assert.Empty(t, reg.Enabled())
}

func TestLoadRegistryRejectsUnknownExtension(t *testing.T) {
	_, err := LoadRegistry(writeFile(t, "publishers.toml", "publishers = []\n"))
	require.ErrorContains(t, err, "unsupported extension")
}

func TestLoadRegistryReportsEveryInvalidEntry(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: hook
    type: http
    kinds: [landing_page]
    http:
      url: https://example.com/hook
  - id: queue
    type: sqs
    sqs:
      region: eu-west-1
  - id: queue
    type: sns
    sns:
      topic_arn: arn:aws:sns:eu-west-1:123456789012:t
      region: eu-west-1
  - id: queue
    type: sns
    sns:
      topic_arn: arn:aws:sns:eu-west-1:123456789012:t
      region: eu-west-1
`)

	_, err := LoadRegistry(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown page kind "landing_page"`)
	assert.ErrorContains(t, err, "sqs.uri is required")
	assert.ErrorContains(t, err, `publishers[3]: duplicate id "queue"`)
}

func TestPublisherConfigValidate(t *testing.T) {
	cases := map[string]struct {
		cfg     PublisherConfig
		wantErr string
	}{
		"missing id":        {cfg: PublisherConfig{Type: TypeHTTP}, wantErr: "id is required"},
		"missing type":      {cfg: PublisherConfig{ID: "x"}, wantErr: "type is required"},
		"missing http":      {cfg: PublisherConfig{ID: "h1", Type: TypeHTTP}, wantErr: "http block is required"},
		"missing sqs":       {cfg: PublisherConfig{ID: "q1", Type: TypeSQS}, wantErr: "sqs block is required"},
		"missing sns topic": {cfg: PublisherConfig{ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "eu-west-1"}}, wantErr: "sns.topic_arn is required"},
		"missing gcp topic": {cfg: PublisherConfig{ID: "g1", Type: TypeGCPPubSub, GCP: &GCPPubSubConfig{ProjectID: "p"}}, wantErr: "gcppubsub.topic is required"},
		"unknown kind": {
			cfg:     PublisherConfig{ID: "h2", Type: TypeHTTP, Kinds: []string{"blog_post"}, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
			wantErr: `unknown page kind "blog_post"`,
		},
		"valid with kinds": {
			cfg: PublisherConfig{ID: "h3", Type: TypeHTTP, Kinds: []string{domain.KindHomePage, domain.KindTopicPage}, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestPublisherConfigAccepts(t *testing.T) {
	all := PublisherConfig{}
	assert.True(t, all.Accepts(domain.KindHomePage))
	assert.True(t, all.Accepts(domain.KindTopicPage))

	topics := PublisherConfig{Kinds: []string{domain.KindTopicPage}}
	assert.False(t, topics.Accepts(domain.KindHomePage))
	assert.True(t, topics.Accepts(domain.KindTopicPage))
}
