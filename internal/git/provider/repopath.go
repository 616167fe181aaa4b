package provider

import "github.com/Tushar-r12345/ai-code-review-analysis/internal/git/repourl"

// SplitRepoPath parses owner and repo for providers using two-level paths
func SplitRepoPath(providerName, repoURL string) (owner, repo string, err error) {
	if repoURL == "" {
		return "", "", &ProviderError{
			Provider: providerName,
			Message:  "empty repository URL",
		}
	}
	_, owner, repo, err = repourl.Split(repoURL)
	if err != nil {
		return "", "", &ProviderError{
			Provider: providerName,
			Message:  "invalid repository URL format",
			Err:      err,
		}
	}
	return owner, repo, nil
}
