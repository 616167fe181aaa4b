// Package config provides configuration management for the application.
// It supports YAML configuration files with environment variable expansion.
package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tushar-r12345/ai-code-review-analysis/consts"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/telemetry"
)

// DefaultConfigPath is used when neither --config nor CODEREVIEW_CONFIG is set
const DefaultConfigPath = "config/config.yaml"

// EnvConfigPath names the environment variable that overrides the config path
const EnvConfigPath = "CODEREVIEW_CONFIG"

// Default configuration values
const (
	defaultPort             = 8000
	defaultWorkers          = 4
	defaultQueueSize        = 100
	defaultMaxRetries       = 3
	defaultRetryDelay       = 30   // seconds
	defaultAttemptTimeout   = 300  // seconds
	defaultResultTTL        = 3600 // seconds
	defaultFileConcurrency  = 4
	defaultWaitPollInterval = 200 // milliseconds
	defaultSyncFetchTimeout = 10  // seconds
	defaultSyncWaitTimeout  = 30  // seconds
	defaultShutdownTimeout  = 30  // seconds
	defaultGitTimeout       = 15  // seconds
	defaultMaxFileSize      = 1 << 20
	defaultLLMTimeout       = 60  // seconds
	defaultCleanupSchedule  = "@every 5m"
	defaultSQLitePath       = "data/codereview.db"
	defaultRedisAddr        = "localhost:6379"
	defaultRedisKeyPrefix   = "codereview:task:"
	defaultGroqBaseURL      = "https://api.groq.com/openai/v1"
	defaultGroqModel        = "llama-3.3-70b-versatile"
	defaultLLMMaxTokens     = 4096
	defaultLLMMaxRetries    = 2
)

// Store driver names
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Tasks         TaskConfig         `yaml:"tasks"`
	Store         StoreConfig        `yaml:"store"`
	Git           GitConfig          `yaml:"git"`
	LLM           LLMConfig          `yaml:"llm"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       logger.Config      `yaml:"logging"`
	Telemetry     telemetry.Config   `yaml:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	Debug       bool     `yaml:"debug"`
	CORSOrigins []string `yaml:"cors_origins"`
	// SyncFetchTimeout bounds the immediate metadata fetch in /analyze-pr (seconds)
	SyncFetchTimeout int `yaml:"sync_fetch_timeout"`
	// SyncWaitTimeout bounds how long /analyze-code waits for its task (seconds)
	SyncWaitTimeout int `yaml:"sync_wait_timeout"`
	// ShutdownTimeout is the graceful shutdown grace period (seconds)
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

// TaskConfig holds task execution configuration
type TaskConfig struct {
	Workers   int `yaml:"workers"`    // concurrent worker goroutines
	QueueSize int `yaml:"queue_size"` // dispatch channel buffer
	// MaxRetries is the number of re-executions after the first failed attempt
	MaxRetries       int `yaml:"max_retries"`
	RetryDelay       int `yaml:"retry_delay"`        // seconds
	AttemptTimeout   int `yaml:"attempt_timeout"`    // seconds
	ResultTTL        int `yaml:"result_ttl"`         // seconds a terminal record is kept
	FileConcurrency  int `yaml:"file_concurrency"`   // parallel files per code analysis task
	WaitPollInterval int `yaml:"wait_poll_interval"` // milliseconds
}

// StoreConfig selects and configures the result store backend
type StoreConfig struct {
	Driver          string       `yaml:"driver"` // sqlite, redis, memory
	SQLite          SQLiteConfig `yaml:"sqlite"`
	Redis           RedisConfig  `yaml:"redis"`
	CleanupSchedule string       `yaml:"cleanup_schedule"` // cron spec for expiry sweeps
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// GitConfig holds Git provider configuration
type GitConfig struct {
	// DefaultProvider is used when a repository host matches no configured provider
	DefaultProvider string           `yaml:"default_provider"`
	Timeout         int              `yaml:"timeout"` // seconds, per upstream call
	// MaxFileSize caps the bytes read for one changed file; larger files fail individually
	MaxFileSize int64            `yaml:"max_file_size"`
	Providers   []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds individual Git provider settings
type ProviderConfig struct {
	Type               string `yaml:"type"`                 // github, gitlab, gitea
	URL                string `yaml:"url"`                  // base URL for self-hosted instances
	Token              string `yaml:"token"`                // fallback token when the request carries none
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // skip TLS verification for self-signed certs
}

// LLMConfig holds analyzer backend configuration
type LLMConfig struct {
	DefaultBackend string                   `yaml:"default_backend"`
	Timeout        int                      `yaml:"timeout"` // seconds, per analyzer call
	Backends       map[string]BackendConfig `yaml:"backends"`
}

// BackendConfig holds a single LLM backend's settings.
// The map key is the backend name used in model_backend.
type BackendConfig struct {
	Type         string  `yaml:"type"` // client implementation, defaults to the backend name
	BaseURL      string  `yaml:"base_url"`
	APIKey       string  `yaml:"api_key"`
	DefaultModel string  `yaml:"default_model"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float64 `yaml:"temperature"`
	MaxRetries   int     `yaml:"max_retries"` // in-call retries for 429/5xx
}

// NotificationChannel represents the type of notification channel
type NotificationChannel string

const (
	NotificationChannelNone    NotificationChannel = ""
	NotificationChannelWebhook NotificationChannel = "webhook"
	NotificationChannelSlack   NotificationChannel = "slack"
)

// NotificationEvent represents the type of event to notify
type NotificationEvent string

const (
	NotificationEventTaskFailed    NotificationEvent = "task_failed"
	NotificationEventTaskCompleted NotificationEvent = "task_completed"
)

// NotificationConfig holds notification configuration
type NotificationConfig struct {
	// Channel is the single active channel; empty disables notifications
	Channel NotificationChannel       `yaml:"channel"`
	Events  []NotificationEvent       `yaml:"events"`
	Webhook WebhookNotificationConfig `yaml:"webhook"`
	Slack   SlackNotificationConfig   `yaml:"slack"`
}

// WebhookNotificationConfig holds webhook notification settings
type WebhookNotificationConfig struct {
	URL string `yaml:"url"`
	// Secret enables an HMAC-SHA256 signature header
	Secret string `yaml:"secret"`
}

// SlackNotificationConfig holds Slack notification settings
type SlackNotificationConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// IsEnabled returns true if notifications are enabled
func (c *NotificationConfig) IsEnabled() bool {
	return c.Channel != NotificationChannelNone
}

// HasEvent returns true if the specified event is in the events list
func (c *NotificationConfig) HasEvent(event NotificationEvent) bool {
	for _, e := range c.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             defaultPort,
			SyncFetchTimeout: defaultSyncFetchTimeout,
			SyncWaitTimeout:  defaultSyncWaitTimeout,
			ShutdownTimeout:  defaultShutdownTimeout,
		},
		Tasks: TaskConfig{
			Workers:          defaultWorkers,
			QueueSize:        defaultQueueSize,
			MaxRetries:       defaultMaxRetries,
			RetryDelay:       defaultRetryDelay,
			AttemptTimeout:   defaultAttemptTimeout,
			ResultTTL:        defaultResultTTL,
			FileConcurrency:  defaultFileConcurrency,
			WaitPollInterval: defaultWaitPollInterval,
		},
		Store: StoreConfig{
			Driver:          StoreDriverSQLite,
			SQLite:          SQLiteConfig{Path: defaultSQLitePath},
			Redis:           RedisConfig{Addr: defaultRedisAddr, KeyPrefix: defaultRedisKeyPrefix},
			CleanupSchedule: defaultCleanupSchedule,
		},
		Git: GitConfig{
			DefaultProvider: "github",
			Timeout:         defaultGitTimeout,
			MaxFileSize:     defaultMaxFileSize,
			Providers: []ProviderConfig{
				{Type: "github"},
			},
		},
		LLM: LLMConfig{
			DefaultBackend: "groq",
			Timeout:        defaultLLMTimeout,
			Backends: map[string]BackendConfig{
				"groq": {
					Type:         "groq",
					BaseURL:      defaultGroqBaseURL,
					DefaultModel: defaultGroqModel,
					MaxTokens:    defaultLLMMaxTokens,
					MaxRetries:   defaultLLMMaxRetries,
				},
			},
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "text",
		},
		Telemetry: telemetry.Config{
			Enabled:     false,
			ServiceName: consts.ServiceName,
			OTLP: telemetry.OTLPConfig{
				Endpoint: "localhost:4317",
				Insecure: true,
			},
			Prometheus: telemetry.PrometheusConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// ResolvePath returns explicit if set, then $CODEREVIEW_CONFIG, then the default path
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultConfigPath
}

// Load loads configuration from a YAML file with environment variable expansion.
// Keys absent from the file keep their Default() values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration content on top of Default()
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.fillBackendDefaults()
	return cfg, nil
}

// fillBackendDefaults restores per-backend defaults. yaml.v3 replaces map
// values wholesale, so a partially specified backend loses them on decode.
func (c *Config) fillBackendDefaults() {
	for name, b := range c.LLM.Backends {
		if b.Type == "" {
			b.Type = name
		}
		if b.Type == "groq" {
			if b.BaseURL == "" {
				b.BaseURL = defaultGroqBaseURL
			}
			if b.DefaultModel == "" {
				b.DefaultModel = defaultGroqModel
			}
		}
		if b.MaxTokens == 0 {
			b.MaxTokens = defaultLLMMaxTokens
		}
		c.LLM.Backends[name] = b
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns.
// Bare $VAR is left untouched.
func expandEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := strings.SplitN(match[2:len(match)-1], ":-", 2)
		if value := os.Getenv(parts[0]); value != "" {
			return value
		}
		if len(parts) > 1 {
			return parts[1]
		}
		return ""
	})
}

// Address returns the server address string
func (c *ServerConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// SyncFetchTimeoutDuration returns SyncFetchTimeout as a duration
func (c *ServerConfig) SyncFetchTimeoutDuration() time.Duration {
	return time.Duration(c.SyncFetchTimeout) * time.Second
}

// SyncWaitTimeoutDuration returns SyncWaitTimeout as a duration
func (c *ServerConfig) SyncWaitTimeoutDuration() time.Duration {
	return time.Duration(c.SyncWaitTimeout) * time.Second
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a duration
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// RetryDelayDuration returns RetryDelay as a duration
func (c *TaskConfig) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}

// AttemptTimeoutDuration returns AttemptTimeout as a duration
func (c *TaskConfig) AttemptTimeoutDuration() time.Duration {
	return time.Duration(c.AttemptTimeout) * time.Second
}

// ResultTTLDuration returns ResultTTL as a duration
func (c *TaskConfig) ResultTTLDuration() time.Duration {
	return time.Duration(c.ResultTTL) * time.Second
}

// WaitPollIntervalDuration returns WaitPollInterval as a duration
func (c *TaskConfig) WaitPollIntervalDuration() time.Duration {
	return time.Duration(c.WaitPollInterval) * time.Millisecond
}

// TimeoutDuration returns the per-call upstream timeout
func (c *GitConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// MaxFileSizeBytes returns MaxFileSize, or the default when unset
func (c *GitConfig) MaxFileSizeBytes() int64 {
	if c.MaxFileSize <= 0 {
		return defaultMaxFileSize
	}
	return c.MaxFileSize
}

// GetProvider returns provider configuration by type
func (c *GitConfig) GetProvider(providerType string) *ProviderConfig {
	for i := range c.Providers {
		if c.Providers[i].Type == providerType {
			return &c.Providers[i]
		}
	}
	return nil
}

// TimeoutDuration returns the per-call analyzer timeout
func (c *LLMConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetBackend returns backend configuration by name
func (c *LLMConfig) GetBackend(name string) (BackendConfig, bool) {
	b, ok := c.Backends[name]
	if ok && b.Type == "" {
		b.Type = name
	}
	return b, ok
}
