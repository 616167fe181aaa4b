// Package provider defines the interface for Git providers.
// Different Git hosting services (GitHub, GitLab, Gitea) implement this interface.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// PullRequest represents a pull/merge request
type PullRequest struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	State       string `json:"state"` // open, closed, merged
	HeadBranch  string `json:"head_branch"`
	HeadSHA     string `json:"head_sha"`
	BaseBranch  string `json:"base_branch"`
	BaseSHA     string `json:"base_sha"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	// Mergeable is nil while the host is still computing it
	Mergeable *bool `json:"mergeable"`
}

// PullRequestFile is one changed file of a pull request
type PullRequestFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"` // added, modified, removed, renamed
	RawURL    string `json:"raw_url"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Provider defines the interface for Git hosting providers
type Provider interface {
	// Name returns the provider name (github, gitlab, gitea)
	Name() string

	// ParseRepoPath parses owner and repo from a repository URL or path
	ParseRepoPath(repoURL string) (owner, repo string, err error)

	// GetPullRequest retrieves pull request details
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)

	// ListPullRequestFiles lists the changed files of a pull request in API order
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]*PullRequestFile, error)

	// FetchRawContent downloads a file from its raw URL
	FetchRawContent(ctx context.Context, rawURL string) ([]byte, error)
}

// ProviderOptions holds options for creating a provider
type ProviderOptions struct {
	Token              string        // access token
	BaseURL            string        // base URL for self-hosted instances
	InsecureSkipVerify bool          // skip SSL certificate verification
	Timeout            time.Duration // per-request timeout, 0 for none
	MaxFileSize        int64         // raw download cap in bytes, 0 for DefaultMaxFileSize
}

// DefaultMaxFileSize caps raw downloads when ProviderOptions.MaxFileSize is unset
const DefaultMaxFileSize = 1 << 20

// RawLimit returns the raw download cap for o
func (o *ProviderOptions) RawLimit() int64 {
	if o == nil || o.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return o.MaxFileSize
}

// ProviderFactory creates a provider instance
type ProviderFactory func(opts *ProviderOptions) (Provider, error)

// Registry holds registered provider factories
var Registry = make(map[string]ProviderFactory)

// Register registers a provider factory
func Register(name string, factory ProviderFactory) {
	Registry[name] = factory
}

// Create creates a provider by name
func Create(name string, opts *ProviderOptions) (Provider, error) {
	factory, ok := Registry[name]
	if !ok {
		return nil, &ProviderError{
			Provider: name,
			Message:  "provider not registered",
		}
	}
	if opts == nil {
		opts = &ProviderOptions{}
	}
	return factory(opts)
}

// ProviderError represents a provider-related error
type ProviderError struct {
	Provider   string
	Message    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := "[" + e.Provider + "] " + e.Message
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UpstreamError wraps a failed hosting API call as an ErrCodeUpstreamFetch error.
// statusCode is 0 for transport failures.
func UpstreamError(providerName, message string, statusCode int, err error) *errors.AppError {
	perr := &ProviderError{
		Provider:   providerName,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
	appErr := errors.Wrap(errors.ErrCodeUpstreamFetch, message, perr)
	if statusCode != 0 {
		appErr = appErr.WithDetails(map[string]int{"status_code": statusCode})
	}
	return appErr
}
