package check

import (
	"fmt"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
)

// validateConfig copies the config package's findings into result
func validateConfig(cfg *config.Config, result *Result) {
	v := cfg.Validate()
	for _, issue := range v.Errors {
		result.addError(issue.String())
	}
	for _, issue := range v.Warnings {
		result.addWarning(issue.String())
	}
}

// checkCredentials reports missing fallback credentials as warnings
func checkCredentials(cfg *config.Config, result *Result) {
	for i, p := range cfg.Git.Providers {
		if p.Token == "" {
			result.addWarning(fmt.Sprintf(
				"git.providers[%d]: no fallback token for %s; requests without a token are unauthenticated",
				i, providerDisplayName(p.Type),
			))
		}
	}

	if cfg.Notifications.Channel == config.NotificationChannelWebhook &&
		cfg.Notifications.Webhook.URL != "" && cfg.Notifications.Webhook.Secret == "" {
		result.addWarning("notifications.webhook.secret: empty; webhook payloads are sent unsigned")
	}
}
