package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3, cfg.Tasks.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Tasks.RetryDelayDuration())
	assert.Equal(t, time.Hour, cfg.Tasks.ResultTTLDuration())
	assert.Equal(t, 30*time.Second, cfg.Server.SyncWaitTimeoutDuration())
	assert.Equal(t, 200*time.Millisecond, cfg.Tasks.WaitPollIntervalDuration())
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Address())

	assert.Equal(t, int64(1<<20), cfg.Git.MaxFileSizeBytes())
	assert.Equal(t, int64(1<<20), (&GitConfig{}).MaxFileSizeBytes())

	b, ok := cfg.LLM.GetBackend("groq")
	require.True(t, ok)
	assert.Equal(t, "https://api.groq.com/openai/v1", b.BaseURL)
}

func TestParse_OverridesAndKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  port: 9000
tasks:
  max_retries: 0
  retry_delay: 5
`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 0, cfg.Tasks.MaxRetries, "explicit zero must survive")
	assert.Equal(t, 5*time.Second, cfg.Tasks.RetryDelayDuration())
	// Untouched sections keep defaults
	assert.Equal(t, defaultWorkers, cfg.Tasks.Workers)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "gsk_test")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  backends:
    groq:
      api_key: ${TEST_GROQ_KEY}
      base_url: ${TEST_GROQ_URL:-http://localhost:9999}
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	b, ok := cfg.LLM.GetBackend("groq")
	require.True(t, ok)
	assert.Equal(t, "gsk_test", b.APIKey)
	assert.Equal(t, "http://localhost:9999", b.BaseURL)
	assert.Equal(t, "groq", b.Type, "type defaults to backend name")
	assert.Equal(t, defaultGroqModel, b.DefaultModel, "partial backend keeps defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CR_SET", "value")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "a: ${CR_SET}", "a: value"},
		{"unset variable", "a: ${CR_UNSET}", "a: "},
		{"default used", "a: ${CR_UNSET:-fallback}", "a: fallback"},
		{"default ignored", "a: ${CR_SET:-fallback}", "a: value"},
		{"bare dollar untouched", "a: $CR_SET", "a: $CR_SET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.in))
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultConfigPath, ResolvePath(""))

	t.Setenv(EnvConfigPath, "/etc/codereview.yaml")
	assert.Equal(t, "/etc/codereview.yaml", ResolvePath(""))
	assert.Equal(t, "local.yaml", ResolvePath("local.yaml"))
}

func TestNotificationConfig(t *testing.T) {
	n := NotificationConfig{}
	assert.False(t, n.IsEnabled())

	n.Channel = NotificationChannelSlack
	n.Events = []NotificationEvent{NotificationEventTaskFailed}
	assert.True(t, n.IsEnabled())
	assert.True(t, n.HasEvent(NotificationEventTaskFailed))
	assert.False(t, n.HasEvent(NotificationEventTaskCompleted))
}

func TestValidate(t *testing.T) {
	t.Run("default config has no errors", func(t *testing.T) {
		r := Default().Validate()
		assert.True(t, r.OK(), "errors: %v", r.Errors)
		assert.NoError(t, r.Err())
		// groq has no api key by default
		assert.NotEmpty(t, r.Warnings)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"no workers", func(c *Config) { c.Tasks.Workers = 0 }, "tasks.workers"},
		{"negative retries", func(c *Config) { c.Tasks.MaxRetries = -1 }, "tasks.max_retries"},
		{"unknown store", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"redis without addr", func(c *Config) {
			c.Store.Driver = StoreDriverRedis
			c.Store.Redis.Addr = ""
		}, "store.redis.addr"},
		{"unknown provider", func(c *Config) { c.Git.Providers = append(c.Git.Providers, ProviderConfig{Type: "svn"}) }, "git.providers[1].type"},
		{"negative max file size", func(c *Config) { c.Git.MaxFileSize = -1 }, "git.max_file_size"},
		{"gitlab without url", func(c *Config) { c.Git.Providers = append(c.Git.Providers, ProviderConfig{Type: "gitlab"}) }, "git.providers[1].url"},
		{"unknown default backend", func(c *Config) { c.LLM.DefaultBackend = "claude" }, "llm.default_backend"},
		{"unknown backend type", func(c *Config) { c.LLM.Backends["x"] = BackendConfig{Type: "bard"} }, "llm.backends.x.type"},
		{"webhook without url", func(c *Config) { c.Notifications.Channel = NotificationChannelWebhook }, "notifications.webhook.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			r := cfg.Validate()
			require.False(t, r.OK())

			var fields []string
			for _, i := range r.Errors {
				fields = append(fields, i.Field)
			}
			assert.Contains(t, fields, tt.field)
			assert.Error(t, r.Err())
		})
	}
}
