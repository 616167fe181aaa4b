package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/provider"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/llm"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/prompt"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/telemetry"
)

// Per-file outcomes recorded in metrics
const (
	fileOutcomeSucceeded = "succeeded"
	fileOutcomeFailed    = "failed"
)

// AnalyzeCode lists the pull request's files and analyzes each one.
// A failure of the listing fails the attempt. Failures of individual files
// are recorded in their result and never affect the other files.
func (e *Executor) AnalyzeCode(ctx context.Context, req *task.CodeAnalysisRequest) (*task.CodeAnalysisResult, error) {
	client, ok := e.backends.Get(req.Model.Backend)
	if !ok {
		return nil, errors.ErrInvalidRequest(fmt.Sprintf("model_backend %q is not configured", req.Model.Backend))
	}

	target, err := e.providers.Resolve(req.RepoURL, req.AuthToken)
	if err != nil {
		return nil, err
	}

	files, err := target.Provider.ListPullRequestFiles(ctx, target.Info.Owner, target.Info.Repo, req.PRNumber)
	if err != nil {
		return nil, err
	}

	logger.Info("Analyzing pull request files",
		zap.String("repo", target.Info.FullName()),
		zap.Int("pr_number", req.PRNumber),
		zap.Int("files", len(files)),
		zap.String("backend", req.Model.Backend),
		zap.String("model", req.Model.Model),
	)

	// Each goroutine owns results[i]; none returns an error, so one file
	// cannot cancel its siblings.
	results := make([]task.FileAnalysisResult, len(files))
	var g errgroup.Group
	g.SetLimit(e.fileConcurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = e.analyzeFile(ctx, target.Provider, client, req.Model.Model, f)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, "code analysis attempt did not finish in time", err)
	}

	result := &task.CodeAnalysisResult{
		RepoURL:  req.RepoURL,
		PRNumber: req.PRNumber,
		Files:    results,
	}

	logger.Info("Pull request files analyzed",
		zap.String("repo", target.Info.FullName()),
		zap.Int("pr_number", req.PRNumber),
		zap.Int("files", len(results)),
		zap.Int("failed", result.Failed()),
	)
	return result, nil
}

// analyzeFile runs fetch, prompt, analyzer and JSON extraction for one file.
// Every failure, including a panic, becomes a FileFailed result.
func (e *Executor) analyzeFile(ctx context.Context, prov provider.Provider, client llm.Client, model string, f *provider.PullRequestFile) (res task.FileAnalysisResult) {
	log := logger.With(zap.String(logger.FieldFilename, f.Filename))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while analyzing file", zap.Any("panic", r))
			res = task.FileFailed(f.Filename, fmt.Errorf("internal error: %v", r))
		}
		outcome := fileOutcomeSucceeded
		if !res.Succeeded() {
			outcome = fileOutcomeFailed
		}
		telemetry.GetMetrics().RecordFileAnalysis(ctx, outcome)
	}()

	content, err := prov.FetchRawContent(ctx, f.RawURL)
	if err != nil {
		log.Warn("Failed to fetch file content", zap.Error(err))
		return task.FileFailed(f.Filename, err)
	}

	text, err := prompt.BuildFileAnalysis(model, f.Filename, string(content))
	if err != nil {
		return task.FileFailed(f.Filename, errors.ErrInternal("failed to build prompt", err))
	}

	start := time.Now()
	resp, err := client.Complete(ctx, &llm.Request{
		Prompt:   text,
		Model:    model,
		Metadata: map[string]string{"filename": f.Filename},
	})
	telemetry.GetMetrics().RecordAnalyzerCall(ctx, client.Name(), err == nil, time.Since(start).Seconds())
	if err != nil {
		log.Warn("Analyzer call failed", zap.Error(err))
		return task.FileFailed(f.Filename, err)
	}

	analysis, err := llm.ExtractFencedJSON(resp.Content)
	if err != nil {
		log.Warn("Analyzer reply has no usable JSON",
			zap.Error(err),
			zap.Int("content_length", len(resp.Content)),
		)
		return task.FileFailed(f.Filename, err)
	}

	return task.FileSucceeded(f.Filename, analysis)
}
