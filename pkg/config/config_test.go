package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, RemoteBolt, cfg.Remote.Kind)
	assert.Equal(t, 3*time.Second, cfg.Notifications.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Mail.Enabled())
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadEmptyPath(t *testing.T) {
	t.Setenv(EnvSendGridAPIKey, "")
	t.Setenv(EnvPostgresDSN, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, RemoteBolt, cfg.Remote.Kind)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvSendGridAPIKey, "")
	t.Setenv(EnvPostgresDSN, "")
	path := writeConfig(t, `
dataDir: /var/lib/storefront
log:
  level: debug
  json: true
remote:
  kind: postgres
  dsn: postgres://shop@localhost/shop?sslmode=disable
notifications:
  timeout: 5s
metrics:
  addr: 127.0.0.1:9100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/storefront", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, RemotePostgres, cfg.Remote.Kind)
	assert.Equal(t, "postgres://shop@localhost/shop?sslmode=disable", cfg.Remote.DSN)
	assert.Equal(t, 5*time.Second, cfg.Notifications.Timeout)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	// Untouched sections keep their defaults
	assert.Equal(t, "orders", cfg.Remote.OrdersCollection)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvPostgresDSN, "postgres://from-env")
	t.Setenv(EnvSendGridAPIKey, "SG.secret")
	t.Setenv(EnvSendGridFrom, "orders@printloft.example")
	path := writeConfig(t, `
remote:
  kind: postgres
  dsn: postgres://from-file
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://from-env", cfg.Remote.DSN)
	assert.True(t, cfg.Mail.Enabled())
	assert.Equal(t, "orders@printloft.example", cfg.Mail.From)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvSendGridAPIKey, "")
	t.Setenv(EnvPostgresDSN, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = Load(writeConfig(t, "remote: [not, a, map]"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no data dir", func(c *Config) { c.DataDir = "" }, "dataDir is required"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"unknown remote", func(c *Config) { c.Remote.Kind = "redis" }, "remote.kind"},
		{"memory remote", func(c *Config) { c.Remote.Kind = RemoteMemory }, ""},
		{"postgres without dsn", func(c *Config) { c.Remote.Kind = RemotePostgres }, "remote.dsn"},
		{"firestore without project", func(c *Config) { c.Remote.Kind = RemoteFirestore }, "remote.projectId"},
		{"firestore complete", func(c *Config) {
			c.Remote.Kind = RemoteFirestore
			c.Remote.ProjectID = "printloft-dev"
		}, ""},
		{"zero timeout", func(c *Config) { c.Notifications.Timeout = 0 }, "notifications.timeout"},
		{"mail without from", func(c *Config) { c.Mail.APIKey = "SG.key" }, "mail.from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.DataDir = ""
	cfg.Remote.Kind = "redis"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataDir")
	assert.Contains(t, err.Error(), "remote.kind")
}
