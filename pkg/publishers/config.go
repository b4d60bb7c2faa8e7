package publishers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/webrequest/internal/listfile"
)

// Publisher types accepted in the publishers file.
const (
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeHTTP      = "http"
	TypeGCPPubSub = "gcp_pubsub"
)

const (
	httpDefaultMethod         = http.MethodPost
	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig is one sink entry. Only the block matching Type is read.
type PublisherConfig struct {
	ID        string               `json:"id" yaml:"id"`
	Type      string               `json:"type" yaml:"type"`
	Enabled   *bool                `json:"enabled" yaml:"enabled"`
	Filter    *Filter              `json:"filter" yaml:"filter"`
	SQS       *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS       *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	HTTP      *HTTPPublisherConfig `json:"http" yaml:"http"`
	GCPPubSub *GCPQueueConfig      `json:"gcp_pubsub" yaml:"gcp_pubsub"`
}

// AWSCredentials are optional static credentials; the default AWS chain is
// used when they are empty.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

type SQSPublisherConfig struct {
	QueueURL    string          `json:"uri" yaml:"uri"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

type SNSPublisherConfig struct {
	TopicARN    string          `json:"topic_arn" yaml:"topic_arn"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// GCPQueueConfig points at a Pub/Sub topic. Endpoint overrides the API host.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig posts each outcome event as JSON to URL.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// sinkBlock is the per-type settings block of a PublisherConfig.
type sinkBlock interface {
	normalize()
	// required lists the names of required fields that are empty.
	required() []string
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
}

func (c *SQSPublisherConfig) required() []string {
	return missing("uri", c.QueueURL, "region", c.Region)
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
}

func (c *SNSPublisherConfig) required() []string {
	return missing("topic_arn", c.TopicARN, "region", c.Region)
}

func (c *GCPQueueConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
}

func (c *GCPQueueConfig) required() []string {
	return missing("project_id", c.ProjectID, "topic", c.Topic)
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}

	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = headers
}

func (c *HTTPPublisherConfig) required() []string {
	return missing("url", c.URL)
}

// missing takes name, value pairs and returns the names with empty values.
func missing(pairs ...string) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			out = append(out, pairs[i])
		}
	}
	return out
}

// block returns a copy of the settings block for cfg.Type, stored back on
// cfg so normalizing never touches the caller's pointers.
func (cfg *PublisherConfig) block() (sinkBlock, error) {
	switch cfg.Type {
	case TypeSQS:
		if cfg.SQS != nil {
			c := *cfg.SQS
			cfg.SQS = &c
			return cfg.SQS, nil
		}
	case TypeSNS:
		if cfg.SNS != nil {
			c := *cfg.SNS
			cfg.SNS = &c
			return cfg.SNS, nil
		}
	case TypeGCPPubSub:
		if cfg.GCPPubSub != nil {
			c := *cfg.GCPPubSub
			cfg.GCPPubSub = &c
			return cfg.GCPPubSub, nil
		}
	case TypeHTTP:
		if cfg.HTTP != nil {
			c := *cfg.HTTP
			cfg.HTTP = &c
			return cfg.HTTP, nil
		}
	default:
		return nil, fmt.Errorf("unsupported publisher type %q", cfg.Type)
	}
	return nil, fmt.Errorf("%s config block is required", cfg.Type)
}

// Prepare trims cfg, applies defaults and checks it is complete.
func Prepare(cfg PublisherConfig) (PublisherConfig, error) {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.ID == "" {
		return cfg, errors.New("id is required")
	}
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}

	blk, err := cfg.block()
	if err != nil {
		return cfg, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	blk.normalize()
	if empty := blk.required(); len(empty) > 0 {
		for i := range empty {
			empty[i] = cfg.Type + "." + empty[i]
		}
		return cfg, fmt.Errorf("publisher %q: missing %s", cfg.ID, strings.Join(empty, ", "))
	}
	if cfg.Type == TypeHTTP {
		switch cfg.HTTP.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			return cfg, fmt.Errorf("publisher %q: http.method %s cannot carry an event body", cfg.ID, cfg.HTTP.Method)
		}
	}

	if cfg.Filter != nil {
		f, err := cfg.Filter.compile()
		if err != nil {
			return cfg, fmt.Errorf("publisher %q: %w", cfg.ID, err)
		}
		cfg.Filter = f
	}
	return cfg, nil
}

// EnabledValue reports the enabled flag, which defaults to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// ConfigRegistry is the validated content of a publishers file.
type ConfigRegistry struct {
	publishers []PublisherConfig
	idx        map[string]int
}

// LoadRegistry loads publishers from a YAML/JSON file or a bare JSON array.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	list, err := listfile.Read[PublisherConfig](path, "publishers")
	if err != nil {
		return nil, err
	}
	return NewConfigRegistry(list)
}

// NewConfigRegistry prepares every entry and rejects duplicate ids.
func NewConfigRegistry(list []PublisherConfig) (*ConfigRegistry, error) {
	if len(list) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(list)),
		idx:        make(map[string]int, len(list)),
	}
	for i, raw := range list {
		cfg, err := Prepare(raw)
		if err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.idx[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	return reg, nil
}

// ByID returns the publisher config with the given id, enabled or not.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// Enabled returns the enabled publishers in file order.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	out := make([]PublisherConfig, 0, len(r.publishers))
	for _, cfg := range r.publishers {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}
