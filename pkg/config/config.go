package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/printloft/storefront/pkg/log"
	"github.com/printloft/storefront/pkg/notify"
	"gopkg.in/yaml.v3"
)

// Remote backend kinds
const (
	RemoteBolt      = "bolt"
	RemoteMemory    = "memory"
	RemotePostgres  = "postgres"
	RemoteFirestore = "firestore"
)

// Environment variables that override file values
const (
	EnvPostgresDSN    = "STOREFRONT_POSTGRES_DSN"
	EnvSendGridAPIKey = "SENDGRID_API_KEY"
	EnvSendGridFrom   = "SENDGRID_FROM"
)

// Config is the storefront engine configuration
type Config struct {
	DataDir       string             `yaml:"dataDir"`
	Log           LogConfig          `yaml:"log"`
	Remote        RemoteConfig       `yaml:"remote"`
	Notifications NotificationConfig `yaml:"notifications"`
	Mail          MailConfig         `yaml:"mail"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// RemoteConfig selects where signed-in carts live
type RemoteConfig struct {
	Kind             string `yaml:"kind"`
	DSN              string `yaml:"dsn,omitempty"`
	ProjectID        string `yaml:"projectId,omitempty"`
	Collection       string `yaml:"collection,omitempty"`
	OrdersCollection string `yaml:"ordersCollection,omitempty"`
}

type NotificationConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// MailConfig enables order confirmations when APIKey is set
type MailConfig struct {
	APIKey   string `yaml:"apiKey,omitempty"`
	From     string `yaml:"from,omitempty"`
	FromName string `yaml:"fromName,omitempty"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Enabled reports whether confirmation mail should be sent
func (m MailConfig) Enabled() bool {
	return m.APIKey != ""
}

// Default returns the configuration used when no file is given
func Default() *Config {
	dataDir := ".storefront"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".storefront")
	}

	return &Config{
		DataDir: dataDir,
		Log: LogConfig{
			Level: string(log.InfoLevel),
		},
		Remote: RemoteConfig{
			Kind:             RemoteBolt,
			Collection:       "carts",
			OrdersCollection: "orders",
		},
		Notifications: NotificationConfig{
			Timeout: notify.DefaultTimeout,
		},
		Mail: MailConfig{
			FromName: "Printloft",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads the defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Remote.DSN = v
	}
	if v := os.Getenv(EnvSendGridAPIKey); v != "" {
		c.Mail.APIKey = v
	}
	if v := os.Getenv(EnvSendGridFrom); v != "" {
		c.Mail.From = v
	}
}

// Validate reports every problem with the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("dataDir is required"))
	}

	switch log.Level(c.Log.Level) {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	switch c.Remote.Kind {
	case RemoteBolt, RemoteMemory:
	case RemotePostgres:
		if c.Remote.DSN == "" {
			errs = append(errs, fmt.Errorf("remote.dsn is required for postgres (or set %s)", EnvPostgresDSN))
		}
	case RemoteFirestore:
		if c.Remote.ProjectID == "" {
			errs = append(errs, errors.New("remote.projectId is required for firestore"))
		}
		if c.Remote.Collection == "" {
			errs = append(errs, errors.New("remote.collection is required for firestore"))
		}
	default:
		errs = append(errs, fmt.Errorf("remote.kind %q is not one of bolt, memory, postgres, firestore", c.Remote.Kind))
	}

	if c.Notifications.Timeout <= 0 {
		errs = append(errs, errors.New("notifications.timeout must be positive"))
	}

	if c.Mail.Enabled() && c.Mail.From == "" {
		errs = append(errs, fmt.Errorf("mail.from is required when mail is enabled (or set %s)", EnvSendGridFrom))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
