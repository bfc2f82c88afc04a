package oversight

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/oversight/engine"
	"github.com/viant/oversight/policy"
	"github.com/viant/oversight/service/notifier/webhook"
	"gopkg.in/yaml.v3"
)

// Audit store vendors.
const (
	AuditMemory = "memory"
	AuditFs     = "fs"
	AuditSQLite = "sqlite"
)

// Notifier vendors.
const (
	NotifierMemory  = "memory"
	NotifierWebhook = "webhook"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON, YAML, environment variables, etc. The
// zero-value is useful – all nested fields inherit their package defaults.
type Config struct {
	Engine   engine.Config  `json:"engine" yaml:"engine"`
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Audit    AuditConfig    `json:"audit" yaml:"audit"`
	Notifier NotifierConfig `json:"notifier" yaml:"notifier"`
	Policy   *policy.Config `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// HTTPConfig configures the optional HTTP surface.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// AuditConfig selects and configures the audit store.
type AuditConfig struct {
	Vendor  string `json:"vendor" yaml:"vendor"`                      // memory | fs | sqlite
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"` // fs vendor
	DSN     string `json:"dsn,omitempty" yaml:"dsn,omitempty"`         // sqlite vendor
}

// NotifierConfig selects and configures the prompt delivery channel.
type NotifierConfig struct {
	Vendor  string         `json:"vendor" yaml:"vendor"` // memory | webhook
	Webhook webhook.Config `json:"webhook,omitempty" yaml:"webhook,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults: a
// fully in-memory service listening on :8711.
func DefaultConfig() *Config {
	return &Config{
		Engine:   engine.DefaultConfig(),
		HTTP:     HTTPConfig{Addr: ":8711"},
		Audit:    AuditConfig{Vendor: AuditMemory},
		Notifier: NotifierConfig{Vendor: NotifierMemory},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Audit.Vendor {
	case "", AuditMemory:
	case AuditFs:
		if c.Audit.BaseURL == "" {
			return fmt.Errorf("audit.baseURL was empty for vendor %q", AuditFs)
		}
	case AuditSQLite:
		if c.Audit.DSN == "" {
			return fmt.Errorf("audit.dsn was empty for vendor %q", AuditSQLite)
		}
	default:
		return fmt.Errorf("unsupported audit.vendor: %q", c.Audit.Vendor)
	}
	switch c.Notifier.Vendor {
	case "", NotifierMemory:
	case NotifierWebhook:
		if c.Notifier.Webhook.URL == "" {
			return fmt.Errorf("notifier.webhook.url was empty for vendor %q", NotifierWebhook)
		}
	default:
		return fmt.Errorf("unsupported notifier.vendor: %q", c.Notifier.Vendor)
	}
	return nil
}

// LoadConfig reads a YAML configuration from URL (file path, file://, s3://,
// gs:// – any scheme afs understands). Unset fields keep their defaults.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
