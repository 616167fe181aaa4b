// Package gitlab implements the Git provider interface for GitLab.
// It supports both GitLab.com (SaaS) and self-hosted GitLab instances.
// This implementation uses the official GitLab API client library.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/provider"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

const providerName = "gitlab"

// GitLab API pagination configuration
const defaultPerPage = 100

// Default GitLab SaaS URL
const defaultGitLabURL = "https://gitlab.com"

func init() {
	provider.Register(providerName, NewProvider)
}

// GitLabProvider implements the Provider interface for GitLab
type GitLabProvider struct {
	client     *gitlab.Client
	httpClient  *http.Client
	baseURL     string
	maxFileSize int64
}

// NewProvider creates a new GitLab provider instance
func NewProvider(opts *provider.ProviderOptions) (provider.Provider, error) {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGitLabURL
	}

	// The API client authenticates with PRIVATE-TOKEN, so its transport carries no bearer
	apiOpts := *opts
	apiOpts.Token = ""
	clientOpts := []gitlab.ClientOptionFunc{
		gitlab.WithHTTPClient(provider.NewHTTPClient(&apiOpts)),
		gitlab.WithoutRetries(),
	}
	if baseURL != defaultGitLabURL {
		clientOpts = append(clientOpts, gitlab.WithBaseURL(baseURL))
	}
	if opts.InsecureSkipVerify {
		logger.Warn("GitLab client configured with InsecureSkipVerify=true, SSL certificate verification is disabled")
	}

	client, err := gitlab.NewClient(opts.Token, clientOpts...)
	if err != nil {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Message:  "failed to create gitlab client",
			Err:      err,
		}
	}

	return &GitLabProvider{
		client:      client,
		httpClient:  provider.NewHTTPClient(opts),
		baseURL:     baseURL,
		maxFileSize: opts.RawLimit(),
	}, nil
}

// Name returns the provider name
func (p *GitLabProvider) Name() string {
	return providerName
}

// ParseRepoPath parses owner and repo from a repository URL.
// Nested group paths are not accepted.
func (p *GitLabProvider) ParseRepoPath(repoURL string) (owner, repo string, err error) {
	return provider.SplitRepoPath(providerName, repoURL)
}

// projectPath returns the GitLab project path
func projectPath(owner, repo string) string {
	return owner + "/" + repo
}

// GetPullRequest retrieves merge request details
func (p *GitLabProvider) GetPullRequest(ctx context.Context, owner, repo string, number int) (*provider.PullRequest, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(projectPath(owner, repo), int64(number), nil, gitlab.WithContext(ctx))
	if err != nil {
		logger.Error("Failed to get merge request",
			zap.Error(err),
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.Int("number", number),
		)
		return nil, provider.UpstreamError(providerName, "failed to fetch PR details", statusOf(resp), err)
	}

	mergeable := mr.DetailedMergeStatus == "mergeable"
	return &provider.PullRequest{
		Number:      int(mr.IID),
		Title:       mr.Title,
		Description: mr.Description,
		State:       mr.State,
		HeadBranch:  mr.SourceBranch,
		HeadSHA:     mr.SHA,
		BaseBranch:  mr.TargetBranch,
		BaseSHA:     mr.DiffRefs.BaseSha,
		Author:      mr.Author.Username,
		URL:         mr.WebURL,
		Mergeable:   &mergeable,
	}, nil
}

// ListPullRequestFiles lists the changed files of a merge request.
// Raw URLs point at the repository files API pinned to the head commit.
func (p *GitLabProvider) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]*provider.PullRequestFile, error) {
	mr, err := p.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	pid := projectPath(owner, repo)
	var files []*provider.PullRequestFile
	page := int64(1)

	for {
		diffs, resp, err := p.client.MergeRequests.ListMergeRequestDiffs(pid, int64(number), &gitlab.ListMergeRequestDiffsOptions{
			ListOptions: gitlab.ListOptions{
				Page:    page,
				PerPage: defaultPerPage,
			},
		}, gitlab.WithContext(ctx))
		if err != nil {
			logger.Error("Failed to list merge request diffs",
				zap.Error(err),
				zap.String("owner", owner),
				zap.String("repo", repo),
				zap.Int("number", number),
			)
			return nil, provider.UpstreamError(providerName, "failed to fetch PR files", statusOf(resp), err)
		}

		for _, d := range diffs {
			additions, deletions := countDiffLines(d.Diff)
			files = append(files, &provider.PullRequestFile{
				Filename:  d.NewPath,
				Status:    diffStatus(d),
				RawURL:    p.rawFileURL(pid, d.NewPath, mr.HeadSHA),
				Additions: additions,
				Deletions: deletions,
			})
		}

		if len(diffs) < defaultPerPage {
			break
		}
		page++
	}

	return files, nil
}

// FetchRawContent downloads a file through the authenticated client
func (p *GitLabProvider) FetchRawContent(ctx context.Context, rawURL string) ([]byte, error) {
	return provider.FetchRaw(ctx, p.httpClient, providerName, rawURL, p.maxFileSize)
}

func (p *GitLabProvider) rawFileURL(pid, path, ref string) string {
	return fmt.Sprintf("%s/api/v4/projects/%s/repository/files/%s/raw?ref=%s",
		p.baseURL, url.PathEscape(pid), url.PathEscape(path), url.QueryEscape(ref))
}

func diffStatus(d *gitlab.MergeRequestDiff) string {
	switch {
	case d.NewFile:
		return "added"
	case d.DeletedFile:
		return "removed"
	case d.RenamedFile:
		return "renamed"
	default:
		return "modified"
	}
}

// countDiffLines counts added and removed lines in a unified diff body
func countDiffLines(diff string) (additions, deletions int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}

func statusOf(resp *gitlab.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
