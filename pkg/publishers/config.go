package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/areweheadlessyet/internal/domain"
)

// Publisher types accepted in the publishers file.
const (
	TypeHTTP      = "http"
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcppubsub"

	httpDefaultMethod         = http.MethodPost
	httpDefaultTimeoutSeconds = 5
)

// document is the publishers file: a single publishers list.
type document struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig describes one downstream sink for page change events.
// Kinds restricts the sink to some page kinds; empty means every kind.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	Kinds   []string             `json:"kinds" yaml:"kinds"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	GCP     *GCPPubSubConfig     `json:"gcppubsub" yaml:"gcppubsub"`
}

// AWSAuthConfig carries optional static credentials and an endpoint override
// (LocalStack and similar). Without keys the default AWS chain is used.
type AWSAuthConfig struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// SQSPublisherConfig targets an SQS queue. FIFO queues are detected by URL.
type SQSPublisherConfig struct {
	QueueURL      string `json:"uri" yaml:"uri"`
	Region        string `json:"region" yaml:"region"`
	AWSAuthConfig `json:",inline" yaml:",inline"`
}

// SNSPublisherConfig targets an SNS topic.
type SNSPublisherConfig struct {
	TopicARN      string `json:"topic_arn" yaml:"topic_arn"`
	Region        string `json:"region" yaml:"region"`
	AWSAuthConfig `json:",inline" yaml:",inline"`
}

// GCPPubSubConfig targets a Pub/Sub topic.
type GCPPubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig targets a webhook, such as a frontend rebuild hook.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// EnabledValue reports the enabled flag, which defaults to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// Accepts reports whether changes of the given page kind go to this publisher.
func (cfg PublisherConfig) Accepts(kind string) bool {
	return len(cfg.Kinds) == 0 || slices.Contains(cfg.Kinds, kind)
}

// normalize trims user input and fills per-type defaults.
func (cfg *PublisherConfig) normalize() {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	kinds := make([]string, 0, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" && !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	cfg.Kinds = kinds

	if h := cfg.HTTP; h != nil {
		h.URL = strings.TrimSpace(h.URL)
		h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
		if h.Method == "" {
			h.Method = httpDefaultMethod
		}
		if h.TimeoutSeconds <= 0 {
			h.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		headers := make(map[string]string, len(h.Headers))
		for k, v := range h.Headers {
			if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
				headers[k] = v
			}
		}
		h.Headers = headers
	}
	if q := cfg.SQS; q != nil {
		q.QueueURL = strings.TrimSpace(q.QueueURL)
		q.Region = strings.TrimSpace(q.Region)
		q.AWSAuthConfig.normalize()
	}
	if n := cfg.SNS; n != nil {
		n.TopicARN = strings.TrimSpace(n.TopicARN)
		n.Region = strings.TrimSpace(n.Region)
		n.AWSAuthConfig.normalize()
	}
	if g := cfg.GCP; g != nil {
		g.ProjectID = strings.TrimSpace(g.ProjectID)
		g.Topic = strings.TrimSpace(g.Topic)
		g.CredentialsFile = strings.TrimSpace(g.CredentialsFile)
	}
}

func (a *AWSAuthConfig) normalize() {
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
	a.SessionToken = strings.TrimSpace(a.SessionToken)
	a.Endpoint = strings.TrimSpace(a.Endpoint)
}

// Validate reports every missing or invalid setting of the entry.
func (cfg PublisherConfig) Validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	var errs []error
	for _, k := range cfg.Kinds {
		if !domain.KnownKind(k) {
			errs = append(errs, fmt.Errorf("unknown page kind %q (want %s or %s)", k, domain.KindHomePage, domain.KindTopicPage))
		}
	}

	required := func(block string, fields map[string]string) {
		for _, name := range slices.Sorted(maps.Keys(fields)) {
			if fields[name] == "" {
				errs = append(errs, fmt.Errorf("%s.%s is required", block, name))
			}
		}
	}

	switch cfg.Type {
	case "":
		errs = append(errs, errors.New("type is required"))
	case TypeHTTP:
		if cfg.HTTP == nil {
			errs = append(errs, errors.New("http block is required"))
			break
		}
		required("http", map[string]string{"url": cfg.HTTP.URL})
	case TypeSQS:
		if cfg.SQS == nil {
			errs = append(errs, errors.New("sqs block is required"))
			break
		}
		required("sqs", map[string]string{"uri": cfg.SQS.QueueURL, "region": cfg.SQS.Region})
	case TypeSNS:
		if cfg.SNS == nil {
			errs = append(errs, errors.New("sns block is required"))
			break
		}
		required("sns", map[string]string{"topic_arn": cfg.SNS.TopicARN, "region": cfg.SNS.Region})
	case TypeGCPPubSub:
		if cfg.GCP == nil {
			errs = append(errs, errors.New("gcppubsub block is required"))
			break
		}
		required("gcppubsub", map[string]string{"project_id": cfg.GCP.ProjectID, "topic": cfg.GCP.Topic})
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

// ConfigRegistry is the validated, read-only set of publisher entries.
type ConfigRegistry struct {
	publishers []PublisherConfig
	byID       map[string]int
}

// LoadRegistry reads a YAML or JSON publishers file. A file without entries
// yields an empty registry, so the syncer runs with change logging only.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var doc document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(raw, &doc)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(raw, &doc)
	default:
		return nil, fmt.Errorf("publishers file %s: unsupported extension %q (want .yaml, .yml or .json)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", path, err)
	}
	return NewConfigRegistry(doc.Publishers)
}

// NewConfigRegistry normalizes and validates cfgs. All invalid entries are
// reported together.
func NewConfigRegistry(cfgs []PublisherConfig) (*ConfigRegistry, error) {
	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(cfgs)),
		byID:       make(map[string]int, len(cfgs)),
	}

	var errs []error
	for i, cfg := range cfgs {
		cfg.normalize()
		if err := cfg.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("publishers[%d]: %w", i, err))
			continue
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			errs = append(errs, fmt.Errorf("publishers[%d]: duplicate id %q", i, cfg.ID))
			continue
		}
		reg.byID[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return reg, nil
}

// ByID returns the entry with the given id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns every entry in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return slices.Clone(r.publishers)
}

// Enabled returns the entries that are switched on.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	return slices.DeleteFunc(r.All(), func(cfg PublisherConfig) bool {
		return !cfg.EnabledValue()
	})
}
