// Package task defines the request, result and status types shared by the
// engine, its executor and the HTTP layer.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// Task is the unit carried by the in-memory queue. The stored record is the
// source of truth for state and attempt count; Task only identifies the work.
type Task struct {
	ID        string
	Kind      model.TaskKind
	Payload   json.RawMessage
	CreatedAt time.Time

	// StoreFailures counts consecutive failed store operations for this task.
	// It is not persisted.
	StoreFailures int
}

// FromRecord builds a queue task for a stored record
func FromRecord(rec *model.TaskRecord) *Task {
	return &Task{
		ID:        rec.ID,
		Kind:      rec.Kind,
		Payload:   json.RawMessage(rec.Payload),
		CreatedAt: rec.CreatedAt,
	}
}

// Request is implemented by every submittable payload
type Request interface {
	// Kind returns the task kind this payload belongs to
	Kind() model.TaskKind

	// Validate checks field-level constraints
	Validate() error

	// Repo returns the repository URL to resolve
	Repo() string
}

// PRAnalysisRequest asks for pull request metadata
type PRAnalysisRequest struct {
	RepoURL   string `json:"repo_url"`
	PRNumber  int    `json:"pr_number"`
	AuthToken string `json:"auth_token,omitempty"`
}

// Kind implements Request
func (r *PRAnalysisRequest) Kind() model.TaskKind { return model.TaskKindPRMetadata }

// Repo implements Request
func (r *PRAnalysisRequest) Repo() string { return r.RepoURL }

// Validate implements Request
func (r *PRAnalysisRequest) Validate() error {
	if strings.TrimSpace(r.RepoURL) == "" {
		return errors.ErrInvalidRequest("repo_url is required")
	}
	if r.PRNumber <= 0 {
		return errors.ErrInvalidRequest("pr_number must be a positive integer")
	}
	return nil
}

// ModelSelector names the analyzer backend and model
type ModelSelector struct {
	Backend string `json:"backend"`
	Model   string `json:"model"`
}

// CodeAnalysisRequest asks for a per-file LLM review of a pull request
type CodeAnalysisRequest struct {
	RepoURL   string        `json:"repo_url"`
	PRNumber  int           `json:"pr_number"`
	AuthToken string        `json:"auth_token,omitempty"`
	Model     ModelSelector `json:"model_selector"`
}

// Kind implements Request
func (r *CodeAnalysisRequest) Kind() model.TaskKind { return model.TaskKindCodeAnalysis }

// Repo implements Request
func (r *CodeAnalysisRequest) Repo() string { return r.RepoURL }

// Validate implements Request
func (r *CodeAnalysisRequest) Validate() error {
	if strings.TrimSpace(r.RepoURL) == "" {
		return errors.ErrInvalidRequest("repo_url is required")
	}
	if r.PRNumber <= 0 {
		return errors.ErrInvalidRequest("pr_number must be a positive integer")
	}
	if strings.TrimSpace(r.Model.Backend) == "" {
		return errors.ErrInvalidRequest("model_backend is required")
	}
	if strings.TrimSpace(r.Model.Model) == "" {
		return errors.ErrInvalidRequest("model_name is required")
	}
	return nil
}

// DecodeRequest restores a stored payload for kind
func DecodeRequest(kind model.TaskKind, payload []byte) (Request, error) {
	var req Request
	switch kind {
	case model.TaskKindPRMetadata:
		req = &PRAnalysisRequest{}
	case model.TaskKindCodeAnalysis:
		req = &CodeAnalysisRequest{}
	default:
		return nil, errors.ErrInvalidRequest(fmt.Sprintf("unknown task kind %q", kind))
	}
	if err := json.Unmarshal(payload, req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid task payload", err)
	}
	return req, nil
}
