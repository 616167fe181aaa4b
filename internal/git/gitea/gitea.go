// Package gitea implements the Git provider interface for Gitea.
// It supports both Gitea.com (cloud hosting) and self-hosted Gitea instances.
// This implementation uses the official Gitea Go SDK.
package gitea

import (
	"context"
	"net/http"
	"strings"

	"code.gitea.io/sdk/gitea"
	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/provider"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

const providerName = "gitea"

// Gitea API pagination configuration
const defaultPerPage = 50

// Default Gitea cloud URL
const defaultGiteaURL = "https://gitea.com"

func init() {
	provider.Register(providerName, NewProvider)
}

// GiteaProvider implements the Provider interface for Gitea
type GiteaProvider struct {
	client     *gitea.Client
	httpClient  *http.Client
	baseURL     string
	maxFileSize int64
}

// NewProvider creates a new Gitea provider instance.
// The server version check is skipped so creation performs no I/O.
func NewProvider(opts *provider.ProviderOptions) (provider.Provider, error) {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGiteaURL
	}

	// The SDK sends its own token header
	apiOpts := *opts
	apiOpts.Token = ""
	clientOpts := []gitea.ClientOption{
		gitea.SetHTTPClient(provider.NewHTTPClient(&apiOpts)),
		gitea.SetGiteaVersion(""),
	}
	if opts.Token != "" {
		clientOpts = append(clientOpts, gitea.SetToken(opts.Token))
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Gitea client configured with InsecureSkipVerify=true, SSL certificate verification is disabled")
	}

	client, err := gitea.NewClient(baseURL, clientOpts...)
	if err != nil {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Message:  "failed to create gitea client",
			Err:      err,
		}
	}

	return &GiteaProvider{
		client:      client,
		httpClient:  provider.NewHTTPClient(opts),
		baseURL:     baseURL,
		maxFileSize: opts.RawLimit(),
	}, nil
}

// Name returns the provider name
func (p *GiteaProvider) Name() string {
	return providerName
}

// ParseRepoPath parses owner and repo from a repository URL
func (p *GiteaProvider) ParseRepoPath(repoURL string) (owner, repo string, err error) {
	return provider.SplitRepoPath(providerName, repoURL)
}

// GetPullRequest retrieves pull request details
func (p *GiteaProvider) GetPullRequest(ctx context.Context, owner, repo string, number int) (*provider.PullRequest, error) {
	p.client.SetContext(ctx)
	pr, resp, err := p.client.GetPullRequest(owner, repo, int64(number))
	if err != nil {
		logger.Error("Failed to get pull request",
			zap.Error(err),
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.Int("number", number),
		)
		return nil, provider.UpstreamError(providerName, "failed to fetch PR details", statusOf(resp), err)
	}

	result := &provider.PullRequest{
		Number:      int(pr.Index),
		Title:       pr.Title,
		Description: pr.Body,
		State:       string(pr.State),
		BaseSHA:     pr.MergeBase,
		URL:         pr.HTMLURL,
		Mergeable:   &pr.Mergeable,
	}
	if pr.Poster != nil {
		result.Author = pr.Poster.UserName
	}
	if pr.Head != nil {
		result.HeadBranch = pr.Head.Ref
		result.HeadSHA = pr.Head.Sha
	}
	if pr.Base != nil {
		result.BaseBranch = pr.Base.Ref
	}
	return result, nil
}

// ListPullRequestFiles lists all changed files, following pagination
func (p *GiteaProvider) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]*provider.PullRequestFile, error) {
	p.client.SetContext(ctx)

	var files []*provider.PullRequestFile
	page := 1

	for {
		changed, resp, err := p.client.ListPullRequestFiles(owner, repo, int64(number), gitea.ListPullRequestFilesOptions{
			ListOptions: gitea.ListOptions{
				Page:     page,
				PageSize: defaultPerPage,
			},
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

		for _, f := range changed {
			files = append(files, &provider.PullRequestFile{
				Filename:  f.Filename,
				Status:    f.Status,
				RawURL:    f.RawURL,
				Additions: f.Additions,
				Deletions: f.Deletions,
			})
		}

		if len(changed) < defaultPerPage {
			break
		}
		page++
	}

	return files, nil
}

// FetchRawContent downloads a file through the authenticated client
func (p *GiteaProvider) FetchRawContent(ctx context.Context, rawURL string) ([]byte, error) {
	return provider.FetchRaw(ctx, p.httpClient, providerName, rawURL, p.maxFileSize)
}

func statusOf(resp *gitea.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
