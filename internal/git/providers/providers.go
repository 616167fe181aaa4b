// Package providers imports all provider implementations to trigger their init()
// registration in provider.Registry.
package providers

import (
	_ "github.com/Tushar-r12345/ai-code-review-analysis/internal/git/gitea"
	_ "github.com/Tushar-r12345/ai-code-review-analysis/internal/git/github"
	_ "github.com/Tushar-r12345/ai-code-review-analysis/internal/git/gitlab"
)
