package config

import (
	"fmt"
	"strings"

	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// Known implementation names. Kept here rather than imported from the
// provider and llm registries so config has no dependency on them.
var (
	knownProviderTypes = []string{"github", "gitlab", "gitea"}
	knownBackendTypes  = []string{"groq", "openai", "mock"}
	knownStoreDrivers  = []string{StoreDriverSQLite, StoreDriverRedis, StoreDriverMemory}
)

// Issue is a single configuration problem
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// ValidationResult separates blocking errors from advisory warnings
type ValidationResult struct {
	Errors   []Issue
	Warnings []Issue
}

// OK reports whether there are no blocking errors
func (r *ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(field, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the configuration and returns all problems found
func (c *Config) Validate() *ValidationResult {
	r := &ValidationResult{}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		r.errorf("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.SyncWaitTimeout <= 0 {
		r.errorf("server.sync_wait_timeout", "must be positive")
	}
	if c.Server.SyncFetchTimeout <= 0 {
		r.errorf("server.sync_fetch_timeout", "must be positive")
	}

	if c.Tasks.Workers <= 0 {
		r.errorf("tasks.workers", "must be positive")
	}
	if c.Tasks.MaxRetries < 0 {
		r.errorf("tasks.max_retries", "must not be negative")
	}
	if c.Tasks.RetryDelay < 0 {
		r.errorf("tasks.retry_delay", "must not be negative")
	}
	if c.Tasks.ResultTTL <= 0 {
		r.errorf("tasks.result_ttl", "must be positive")
	}
	if c.Tasks.FileConcurrency <= 0 {
		r.errorf("tasks.file_concurrency", "must be positive")
	}
	if c.Tasks.AttemptTimeout <= 0 {
		r.errorf("tasks.attempt_timeout", "must be positive")
	}
	if c.Tasks.AttemptTimeout > 0 && c.Tasks.AttemptTimeout < c.LLM.Timeout {
		r.warnf("tasks.attempt_timeout", "shorter than llm.timeout (%ds < %ds)", c.Tasks.AttemptTimeout, c.LLM.Timeout)
	}

	if !contains(knownStoreDrivers, c.Store.Driver) {
		r.errorf("store.driver", "unknown driver %q (want one of %s)", c.Store.Driver, strings.Join(knownStoreDrivers, ", "))
	}
	if c.Store.Driver == StoreDriverSQLite && c.Store.SQLite.Path == "" {
		r.errorf("store.sqlite.path", "required for sqlite driver")
	}
	if c.Store.Driver == StoreDriverRedis && c.Store.Redis.Addr == "" {
		r.errorf("store.redis.addr", "required for redis driver")
	}
	if c.Store.Driver == StoreDriverMemory {
		r.warnf("store.driver", "memory store loses all tasks on restart")
	}

	if len(c.Git.Providers) == 0 {
		r.errorf("git.providers", "at least one provider is required")
	}
	for i, p := range c.Git.Providers {
		if !contains(knownProviderTypes, p.Type) {
			r.errorf(fmt.Sprintf("git.providers[%d].type", i), "unknown provider type %q", p.Type)
		}
		if p.Type != "github" && p.URL == "" {
			r.errorf(fmt.Sprintf("git.providers[%d].url", i), "required for %s", p.Type)
		}
		if p.InsecureSkipVerify {
			r.warnf(fmt.Sprintf("git.providers[%d].insecure_skip_verify", i), "TLS verification disabled")
		}
	}
	if c.Git.DefaultProvider != "" && c.Git.GetProvider(c.Git.DefaultProvider) == nil {
		r.errorf("git.default_provider", "%q is not configured in git.providers", c.Git.DefaultProvider)
	}
	if c.Git.MaxFileSize < 0 {
		r.errorf("git.max_file_size", "must not be negative")
	}

	if len(c.LLM.Backends) == 0 {
		r.errorf("llm.backends", "at least one backend is required")
	}
	for name := range c.LLM.Backends {
		b, _ := c.LLM.GetBackend(name)
		field := "llm.backends." + name
		if !contains(knownBackendTypes, b.Type) {
			r.errorf(field+".type", "unknown backend type %q", b.Type)
			continue
		}
		if b.Type != "mock" && b.APIKey == "" {
			r.warnf(field+".api_key", "empty; code analysis requests for this backend will fail")
		}
		if b.MaxRetries < 0 {
			r.errorf(field+".max_retries", "must not be negative")
		}
	}
	if _, ok := c.LLM.Backends[c.LLM.DefaultBackend]; c.LLM.DefaultBackend != "" && !ok {
		r.errorf("llm.default_backend", "%q is not configured in llm.backends", c.LLM.DefaultBackend)
	}

	if c.Notifications.IsEnabled() {
		switch c.Notifications.Channel {
		case NotificationChannelWebhook:
			if c.Notifications.Webhook.URL == "" {
				r.errorf("notifications.webhook.url", "required for webhook channel")
			}
		case NotificationChannelSlack:
			if c.Notifications.Slack.WebhookURL == "" {
				r.errorf("notifications.slack.webhook_url", "required for slack channel")
			}
		default:
			r.errorf("notifications.channel", "unknown channel %q", c.Notifications.Channel)
		}
		if len(c.Notifications.Events) == 0 {
			r.warnf("notifications.events", "channel set but no events selected")
		}
	}

	return r
}

// Err converts blocking errors into an AppError, or nil
func (r *ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, i := range r.Errors {
		msgs = append(msgs, i.String())
	}
	return errors.New(errors.ErrCodeConfigInvalid, strings.Join(msgs, "; ")).WithDetails(r.Errors)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
