package publishers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sink types.
const (
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"
)

const defaultWebhookTimeout = 5 * time.Second

// SinkConfig declares one downstream sink. Only the block matching Type is read.
type SinkConfig struct {
	ID      string         `yaml:"id"`
	Type    string         `yaml:"type"`
	Enabled *bool          `yaml:"enabled"`
	SQS     *SQSConfig     `yaml:"sqs"`
	SNS     *SNSConfig     `yaml:"sns"`
	PubSub  *PubSubConfig  `yaml:"pubsub"`
	HTTP    *WebhookConfig `yaml:"http"`
}

// SQSConfig targets one queue.
type SQSConfig struct {
	QueueURL string `yaml:"uri"`
	Region   string `yaml:"region"`
}

// SNSConfig targets one topic.
type SNSConfig struct {
	TopicARN string `yaml:"topic_arn"`
	Region   string `yaml:"region"`
}

// PubSubConfig targets one Google Cloud Pub/Sub topic. CredentialsFile is optional;
// application default credentials (or PUBSUB_EMULATOR_HOST) apply otherwise.
type PubSubConfig struct {
	ProjectID       string `yaml:"project_id"`
	Topic           string `yaml:"topic"`
	CredentialsFile string `yaml:"credentials_file"`
}

// WebhookConfig posts each event as JSON to a CMS or automation endpoint.
type WebhookConfig struct {
	URL            string            `yaml:"url"`
	Method         string            `yaml:"method"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

func (c WebhookConfig) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultWebhookTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IsEnabled defaults to true when the flag is omitted.
func (c SinkConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// sinkKind ties a sink type to its config checks and its constructor.
type sinkKind struct {
	normalize func(*SinkConfig)
	validate  func(SinkConfig) error
	build     func(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error)
}

var sinkKinds = map[string]sinkKind{
	TypeHTTP:   {normalize: normalizeWebhook, validate: validateWebhook, build: newWebhookPublisher},
	TypeSQS:    {normalize: normalizeSQS, validate: validateSQS, build: newSQSPublisher},
	TypeSNS:    {normalize: normalizeSNS, validate: validateSNS, build: newSNSPublisher},
	TypePubSub: {normalize: normalizePubSub, validate: validatePubSub, build: newPubSubPublisher},
}

// LoadSinks reads sink definitions from a YAML or JSON file and returns the enabled ones,
// normalized and validated. An empty path means no sinks. Disabled entries are not validated,
// so placeholders can stay in the file.
func LoadSinks(path string) ([]SinkConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("publishers file %q: unsupported extension %q (want .yaml, .yml or .json)", path, ext)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	sinks, err := decodeSinks(raw)
	if err != nil {
		return nil, fmt.Errorf("publishers file %q: %w", path, err)
	}
	return sinks, nil
}

// decodeSinks parses the file body. yaml.v3 reads JSON as well, and unknown keys are rejected
// so a misspelled block fails at startup instead of silently disabling a sink.
func decodeSinks(raw []byte) ([]SinkConfig, error) {
	var file struct {
		Publishers []SinkConfig `yaml:"publishers"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("no publishers entries")
	}

	seen := make(map[string]struct{}, len(file.Publishers))
	out := make([]SinkConfig, 0, len(file.Publishers))
	for i, cfg := range file.Publishers {
		cfg.ID = strings.TrimSpace(cfg.ID)
		cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
		if cfg.ID == "" {
			return nil, fmt.Errorf("publishers[%d]: id is required", i)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("publishers[%d]: duplicate id %q", i, cfg.ID)
		}
		seen[cfg.ID] = struct{}{}

		if !cfg.IsEnabled() {
			continue
		}
		if err := prepareSink(&cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		out = append(out, cfg)
	}
	return out, nil
}

// prepareSink normalizes cfg in place and validates it against its kind.
func prepareSink(cfg *SinkConfig) error {
	kind, ok := sinkKinds[cfg.Type]
	if !ok {
		return fmt.Errorf("publisher %q: unsupported type %q", cfg.ID, cfg.Type)
	}
	kind.normalize(cfg)
	if err := kind.validate(*cfg); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func normalizeWebhook(cfg *SinkConfig) {
	if cfg.HTTP == nil {
		return
	}
	c := *cfg.HTTP
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = "POST"
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = headers
	cfg.HTTP = &c
}

func validateWebhook(cfg SinkConfig) error {
	if cfg.HTTP == nil {
		return errors.New("http block is required")
	}
	u, err := url.Parse(cfg.HTTP.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("http.url %q must be an absolute http(s) url", cfg.HTTP.URL)
	}
	return nil
}

func normalizeSQS(cfg *SinkConfig) {
	if cfg.SQS == nil {
		return
	}
	c := *cfg.SQS
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
	cfg.SQS = &c
}

func validateSQS(cfg SinkConfig) error {
	switch {
	case cfg.SQS == nil:
		return errors.New("sqs block is required")
	case cfg.SQS.QueueURL == "":
		return errors.New("sqs.uri is required")
	case cfg.SQS.Region == "":
		return errors.New("sqs.region is required")
	}
	return nil
}

func normalizeSNS(cfg *SinkConfig) {
	if cfg.SNS == nil {
		return
	}
	c := *cfg.SNS
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	cfg.SNS = &c
}

func validateSNS(cfg SinkConfig) error {
	switch {
	case cfg.SNS == nil:
		return errors.New("sns block is required")
	case !strings.HasPrefix(cfg.SNS.TopicARN, "arn:"):
		return fmt.Errorf("sns.topic_arn %q is not an arn", cfg.SNS.TopicARN)
	case cfg.SNS.Region == "":
		return errors.New("sns.region is required")
	}
	return nil
}

func normalizePubSub(cfg *SinkConfig) {
	if cfg.PubSub == nil {
		return
	}
	c := *cfg.PubSub
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
	cfg.PubSub = &c
}

func validatePubSub(cfg SinkConfig) error {
	switch {
	case cfg.PubSub == nil:
		return errors.New("pubsub block is required")
	case cfg.PubSub.ProjectID == "" || cfg.PubSub.Topic == "":
		return errors.New("pubsub.project_id and pubsub.topic are required")
	}
	return nil
}
