// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/api/middleware"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// Fallbacks when the server config leaves the synchronous timeouts unset
const (
	defaultSyncFetchTimeout = 10 * time.Second
	defaultSyncWaitTimeout  = 30 * time.Second
)

// TaskService submits tasks and reads their state.
// Implemented by engine.Engine.
type TaskService interface {
	Submit(ctx context.Context, req task.Request) (string, error)
	Wait(ctx context.Context, id string) (*model.TaskRecord, error)
	Status(ctx context.Context, id string) (task.Status, error)
}

// MetadataFetcher fetches pull request metadata synchronously.
// Implemented by executor.Executor.
type MetadataFetcher interface {
	FetchPRMetadata(ctx context.Context, req *task.PRAnalysisRequest) (*task.PRMetadataResult, error)
}

// AnalysisHandler handles analysis submission requests
type AnalysisHandler struct {
	tasks            TaskService
	fetcher          MetadataFetcher
	syncFetchTimeout time.Duration
	syncWaitTimeout  time.Duration
}

// NewAnalysisHandler creates a new analysis handler.
// Zero timeouts fall back to the defaults.
func NewAnalysisHandler(tasks TaskService, fetcher MetadataFetcher, syncFetchTimeout, syncWaitTimeout time.Duration) *AnalysisHandler {
	if syncFetchTimeout <= 0 {
		syncFetchTimeout = defaultSyncFetchTimeout
	}
	if syncWaitTimeout <= 0 {
		syncWaitTimeout = defaultSyncWaitTimeout
	}
	return &AnalysisHandler{
		tasks:            tasks,
		fetcher:          fetcher,
		syncFetchTimeout: syncFetchTimeout,
		syncWaitTimeout:  syncWaitTimeout,
	}
}

// AnalyzePRRequest represents the request body for POST /analyze-pr
type AnalyzePRRequest struct {
	RepoURL     string `json:"repo_url"`
	PRNumber    int    `json:"pr_number"`
	GithubToken string `json:"github_token"`
}

// AnalyzeCodeRequest represents the request body for POST /analyze-code
type AnalyzeCodeRequest struct {
	RepoURL      string `json:"repo_url"`
	PRNumber     int    `json:"pr_number"`
	GithubToken  string `json:"github_token"`
	ModelBackend string `json:"model_backend"`
	ModelName    string `json:"model_name"`
}

// AnalyzePR handles POST /analyze-pr.
// It queues a metadata task, then fetches the same metadata synchronously for
// the response. A failed synchronous fetch does not affect the queued task.
func (h *AnalysisHandler) AnalyzePR(c *gin.Context) {
	var body AnalyzePRRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(errors.Wrap(errors.ErrCodeInvalidRequest, "Invalid request body: "+err.Error(), err))
		return
	}

	req := &task.PRAnalysisRequest{
		RepoURL:   body.RepoURL,
		PRNumber:  body.PRNumber,
		AuthToken: body.GithubToken,
	}

	taskID, err := h.tasks.Submit(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.syncFetchTimeout)
	defer cancel()

	meta, err := h.fetcher.FetchPRMetadata(ctx, req)
	if err != nil {
		logger.Warn("Synchronous metadata fetch failed",
			zap.String(logger.FieldTaskID, taskID),
			zap.String(logger.FieldRequestID, c.GetString(middleware.RequestIDKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  errors.CodeOf(err),
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id":   taskID,
		"repo":      meta.Repo,
		"pr_number": meta.PRNumber,
		"title":     meta.Title,
		"author":    meta.Author,
		"status":    meta.Status,
		"mergeable": meta.Mergeable,
	})
}

// AnalyzeCode handles POST /analyze-code.
// It queues a code analysis task and waits a bounded time for it. On timeout
// the task keeps running and can be polled by id.
func (h *AnalysisHandler) AnalyzeCode(c *gin.Context) {
	var body AnalyzeCodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(errors.Wrap(errors.ErrCodeInvalidRequest, "Invalid request body: "+err.Error(), err))
		return
	}

	req := &task.CodeAnalysisRequest{
		RepoURL:   body.RepoURL,
		PRNumber:  body.PRNumber,
		AuthToken: body.GithubToken,
		Model: task.ModelSelector{
			Backend: body.ModelBackend,
			Model:   body.ModelName,
		},
	}

	taskID, err := h.tasks.Submit(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.syncWaitTimeout)
	defer cancel()

	rec, err := h.tasks.Wait(ctx, taskID)
	if err != nil {
		logger.Info("Code analysis not finished within wait timeout",
			zap.String(logger.FieldTaskID, taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"task_id": taskID,
			"code":    errors.CodeOf(err),
			"error":   err.Error(),
		})
		return
	}

	if rec.State != model.TaskStateSucceeded {
		c.JSON(http.StatusInternalServerError, gin.H{
			"task_id": taskID,
			"code":    errors.ErrCodeTaskExhausted,
			"error":   rec.Error,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  task.StatusCompleted,
		"task_id": taskID,
		"result":  rec.Result,
	})
}
