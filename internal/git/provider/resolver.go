package provider

import (
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/repourl"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// Target is a resolved repository with the provider that serves it
type Target struct {
	Provider Provider
	Info     *repourl.RepoInfo
}

// Resolver maps repository URLs to configured providers
type Resolver struct {
	cfg    config.GitConfig
	parser *repourl.Parser
}

// NewResolver creates a resolver from Git configuration.
// Self-hosted provider URLs are registered as host mappings.
func NewResolver(cfg config.GitConfig) *Resolver {
	parser := repourl.NewParser()
	for _, p := range cfg.Providers {
		parser.RegisterBaseURL(p.URL, p.Type)
	}
	return &Resolver{cfg: cfg, parser: parser}
}

// Parse validates repoURL and fills in the provider name, falling back to the default
func (r *Resolver) Parse(repoURL string) (*repourl.RepoInfo, error) {
	info, err := r.parser.Parse(repoURL)
	if err != nil {
		return nil, errors.ErrInvalidRequest(err.Error())
	}
	if info.Provider == "" {
		info.Provider = r.defaultProvider()
	}
	return info, nil
}

// Resolve parses repoURL and creates its provider. token overrides the configured
// token when non-empty.
func (r *Resolver) Resolve(repoURL, token string) (*Target, error) {
	info, err := r.Parse(repoURL)
	if err != nil {
		return nil, err
	}

	opts := &ProviderOptions{
		Token:       token,
		Timeout:     r.cfg.TimeoutDuration(),
		MaxFileSize: r.cfg.MaxFileSizeBytes(),
	}
	if pc := r.cfg.GetProvider(info.Provider); pc != nil {
		if opts.Token == "" {
			opts.Token = pc.Token
		}
		opts.BaseURL = pc.URL
		opts.InsecureSkipVerify = pc.InsecureSkipVerify
	}

	prov, err := Create(info.Provider, opts)
	if err != nil {
		return nil, errors.ErrInternal("failed to create git provider", err)
	}
	return &Target{Provider: prov, Info: info}, nil
}

func (r *Resolver) defaultProvider() string {
	if r.cfg.DefaultProvider != "" {
		return r.cfg.DefaultProvider
	}
	return "github"
}
