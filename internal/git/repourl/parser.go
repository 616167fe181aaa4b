// Package repourl parses repository URLs into provider, host and owner/repo.
// Only two-segment owner/repo paths are accepted; anything deeper is rejected.
package repourl

import (
	"fmt"
	"strings"
)

// RepoInfo contains parsed information from a repository URL
type RepoInfo struct {
	// Provider is the Git provider name (github, gitlab, gitea), empty when undetected
	Provider string

	// Host is the lower-cased host, empty for bare owner/repo input
	Host string

	Owner string
	Repo  string

	// OriginalURL is the original URL that was parsed
	OriginalURL string
}

// FullName returns owner/repo
func (info *RepoInfo) FullName() string {
	return info.Owner + "/" + info.Repo
}

// String returns a human-readable string representation
func (info *RepoInfo) String() string {
	if info.Provider == "" {
		return info.FullName()
	}
	return fmt.Sprintf("%s (%s)", info.FullName(), info.Provider)
}

// Parser parses repository URLs from different Git providers
type Parser struct {
	// customHostMappings maps custom hosts to provider names
	customHostMappings map[string]string
}

// NewParser creates a new repository URL parser
func NewParser() *Parser {
	return &Parser{
		customHostMappings: make(map[string]string),
	}
}

// RegisterHost maps a self-hosted host to a provider,
// e.g. RegisterHost("git.example.com", "gitea").
func (p *Parser) RegisterHost(host, provider string) {
	p.customHostMappings[strings.ToLower(host)] = provider
}

// RegisterBaseURL maps the host of a provider base URL. Empty URLs are ignored.
func (p *Parser) RegisterBaseURL(baseURL, provider string) {
	if host := HostOf(baseURL); host != "" {
		p.RegisterHost(host, provider)
	}
}

// Parse parses a repository URL.
// Supported formats:
//   - https://github.com/owner/repo
//   - https://github.com/owner/repo.git
//   - git@github.com:owner/repo.git
//   - github.com/owner/repo
//   - owner/repo
func (p *Parser) Parse(repoURL string) (*RepoInfo, error) {
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return nil, fmt.Errorf("empty repository URL")
	}

	host, owner, repo, err := Split(repoURL)
	if err != nil {
		return nil, err
	}

	return &RepoInfo{
		Provider:    p.detectProvider(host),
		Host:        host,
		Owner:       owner,
		Repo:        repo,
		OriginalURL: repoURL,
	}, nil
}

// detectProvider determines the Git provider from the host
func (p *Parser) detectProvider(host string) string {
	if host == "" {
		return ""
	}
	if provider, ok := p.customHostMappings[host]; ok {
		return provider
	}

	switch {
	case strings.Contains(host, "github"):
		return "github"
	case strings.Contains(host, "gitlab"):
		return "gitlab"
	case strings.Contains(host, "gitea"):
		return "gitea"
	}
	return ""
}

// Normalize removes protocol prefixes, credentials, the .git suffix and
// trailing slashes, and turns git@host:path into host/path.
func Normalize(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, ".git")

	isSSH := strings.HasPrefix(u, "git@")
	for _, prefix := range []string{"https://", "http://", "ssh://", "git@"} {
		u = strings.TrimPrefix(u, prefix)
	}

	if at := strings.Index(u, "@"); at >= 0 && at < strings.Index(u+"/", "/") {
		u = u[at+1:]
	}
	if isSSH {
		u = strings.Replace(u, ":", "/", 1)
	}
	return strings.TrimSuffix(u, "/")
}

// Split returns host, owner and repo for a repository URL.
// host is empty for bare owner/repo input.
func Split(repoURL string) (host, owner, repo string, err error) {
	parts := strings.Split(Normalize(repoURL), "/")

	var clean []string
	for _, part := range parts {
		if part != "" {
			clean = append(clean, part)
		}
	}

	switch {
	case len(clean) == 2 && !looksLikeHost(clean[0]):
		return "", clean[0], clean[1], nil
	case len(clean) == 3 && looksLikeHost(clean[0]):
		return strings.ToLower(clean[0]), clean[1], clean[2], nil
	default:
		return "", "", "", fmt.Errorf("repository URL must point to owner/repo: %s", repoURL)
	}
}

// HostOf extracts the lower-cased host from a URL
func HostOf(rawURL string) string {
	host := Normalize(rawURL)
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	return strings.ToLower(host)
}

// looksLikeHost reports whether a leading segment is a host rather than an owner
func looksLikeHost(segment string) bool {
	return strings.Contains(segment, ".") || strings.Contains(segment, ":") || segment == "localhost"
}

// DefaultParser is the default repository URL parser instance
var DefaultParser = NewParser()

// Parse is a convenience function using the default parser
func Parse(repoURL string) (*RepoInfo, error) {
	return DefaultParser.Parse(repoURL)
}
