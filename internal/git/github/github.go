// Package github implements the Git provider interface for GitHub.
// GitHub Enterprise is supported through a configured base URL.
package github

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/provider"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// GitHub provider constants
const (
	providerName = "github"

	// API pagination configuration
	defaultPerPage = 100

	// Default GitHub URL for public GitHub
	defaultGitHubURL = "https://github.com"
)

func init() {
	provider.Register(providerName, NewProvider)
}

// GitHubProvider implements the Provider interface for GitHub
type GitHubProvider struct {
	client     *github.Client
	httpClient  *http.Client
	baseURL     string
	maxFileSize int64
}

// NewProvider creates a new GitHub provider instance
func NewProvider(opts *provider.ProviderOptions) (provider.Provider, error) {
	httpClient := provider.NewHTTPClient(opts)
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")

	client := github.NewClient(httpClient)
	if baseURL != "" && baseURL != defaultGitHubURL {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, &provider.ProviderError{
				Provider: providerName,
				Message:  "failed to create enterprise client",
				Err:      err,
			}
		}
	}

	return &GitHubProvider{
		client:      client,
		httpClient:  httpClient,
		baseURL:     baseURL,
		maxFileSize: opts.RawLimit(),
	}, nil
}

// Name returns the provider name
func (p *GitHubProvider) Name() string {
	return providerName
}

// ParseRepoPath parses owner and repo from a repository URL.
// GitHub uses a two-level structure: owner/repo
func (p *GitHubProvider) ParseRepoPath(repoURL string) (owner, repo string, err error) {
	return provider.SplitRepoPath(providerName, repoURL)
}

// GetPullRequest retrieves pull request details
func (p *GitHubProvider) GetPullRequest(ctx context.Context, owner, repo string, number int) (*provider.PullRequest, error) {
	pr, resp, err := p.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		logger.Error("Failed to get pull request",
			zap.Error(err),
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.Int("number", number),
		)
		return nil, provider.UpstreamError(providerName, "failed to fetch PR details", statusOf(resp), err)
	}

	return &provider.PullRequest{
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		State:       pr.GetState(),
		HeadBranch:  pr.GetHead().GetRef(),
		HeadSHA:     pr.GetHead().GetSHA(),
		BaseBranch:  pr.GetBase().GetRef(),
		BaseSHA:     pr.GetBase().GetSHA(),
		Author:      pr.GetUser().GetLogin(),
		URL:         pr.GetHTMLURL(),
		Mergeable:   pr.Mergeable,
	}, nil
}

// ListPullRequestFiles lists all changed files, following pagination
func (p *GitHubProvider) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]*provider.PullRequestFile, error) {
	var files []*provider.PullRequestFile
	page := 1

	for {
		commitFiles, resp, err := p.client.PullRequests.ListFiles(ctx, owner, repo, number, &github.ListOptions{
			Page:    page,
			PerPage: defaultPerPage,
		})
		if err != nil {
			logger.Error("Failed to list pull request files",
				zap.Error(err),
				zap.String("owner", owner),
				zap.String("repo", repo),
				zap.Int("number", number),
			)
			return nil, provider.UpstreamError(providerName, "failed to fetch PR files", statusOf(resp), err)
		}

		for _, f := range commitFiles {
			files = append(files, &provider.PullRequestFile{
				Filename:  f.GetFilename(),
				Status:    f.GetStatus(),
				RawURL:    f.GetRawURL(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	logger.Debug("Listed pull request files",
		zap.String("owner", owner),
		zap.String("repo", repo),
		zap.Int("number", number),
		zap.Int("count", len(files)),
	)
	return files, nil
}

// FetchRawContent downloads a file through the authenticated client
func (p *GitHubProvider) FetchRawContent(ctx context.Context, rawURL string) ([]byte, error) {
	return provider.FetchRaw(ctx, p.httpClient, providerName, rawURL, p.maxFileSize)
}

func statusOf(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
