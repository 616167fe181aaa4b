// Package executor runs the work function of each task kind: the pull request
// metadata fetch and the per-file code analysis pipeline.
package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/provider"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/repourl"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/llm"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// DefaultFileConcurrency bounds parallel files when the config leaves it unset
const DefaultFileConcurrency = 4

// ProviderResolver maps repository URLs to git providers
type ProviderResolver interface {
	Parse(repoURL string) (*repourl.RepoInfo, error)
	Resolve(repoURL, token string) (*provider.Target, error)
}

// BackendResolver looks up analyzer clients by backend name
type BackendResolver interface {
	Get(name string) (llm.Client, bool)
	Has(name string) bool
}

// Executor runs task work functions
type Executor struct {
	providers       ProviderResolver
	backends        BackendResolver
	fileConcurrency int
}

// NewExecutor creates a new Executor instance.
func NewExecutor(providers ProviderResolver, backends BackendResolver, fileConcurrency int) *Executor {
	if fileConcurrency <= 0 {
		fileConcurrency = DefaultFileConcurrency
	}
	return &Executor{
		providers:       providers,
		backends:        backends,
		fileConcurrency: fileConcurrency,
	}
}

// Validate checks a request before it is accepted: field constraints, a
// two-segment repository path and, for code analysis, a configured backend.
func (e *Executor) Validate(req task.Request) error {
	if req == nil {
		return errors.ErrInvalidRequest("request is required")
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := e.providers.Parse(req.Repo()); err != nil {
		return err
	}
	if code, ok := req.(*task.CodeAnalysisRequest); ok {
		if !e.backends.Has(code.Model.Backend) {
			return errors.ErrInvalidRequest(fmt.Sprintf("model_backend %q is not configured", code.Model.Backend))
		}
	}
	return nil
}

// Execute decodes a stored payload and runs the work for kind.
// The returned JSON is the task result.
func (e *Executor) Execute(ctx context.Context, kind model.TaskKind, payload []byte) (json.RawMessage, error) {
	req, err := task.DecodeRequest(kind, payload)
	if err != nil {
		return nil, err
	}

	var result any
	switch r := req.(type) {
	case *task.PRAnalysisRequest:
		result, err = e.FetchPRMetadata(ctx, r)
	case *task.CodeAnalysisRequest:
		result, err = e.AnalyzeCode(ctx, r)
	default:
		return nil, errors.ErrInternal(fmt.Sprintf("no work function for %T", req), nil)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, errors.ErrInternal("failed to encode task result", err)
	}
	return data, nil
}

// FetchPRMetadata fetches the pull request once and maps its metadata.
// It is all-or-nothing; upstream failures are returned as is.
func (e *Executor) FetchPRMetadata(ctx context.Context, req *task.PRAnalysisRequest) (*task.PRMetadataResult, error) {
	target, err := e.providers.Resolve(req.RepoURL, req.AuthToken)
	if err != nil {
		return nil, err
	}

	pr, err := target.Provider.GetPullRequest(ctx, target.Info.Owner, target.Info.Repo, req.PRNumber)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetched pull request metadata",
		zap.String("repo", target.Info.FullName()),
		zap.Int("pr_number", req.PRNumber),
		zap.String("provider", target.Provider.Name()),
	)

	return &task.PRMetadataResult{
		Repo:      req.RepoURL,
		PRNumber:  req.PRNumber,
		Title:     pr.Title,
		Author:    pr.Author,
		Status:    pr.State,
		Mergeable: pr.Mergeable,
	}, nil
}
