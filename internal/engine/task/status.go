package task

import (
	"encoding/json"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
)

// Public status values reported by the status endpoint
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusUnknown    = "unknown"
)

// Status is the caller-facing view of a task
type Status struct {
	TaskID string          `json:"task_id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ProjectStatus maps a stored record to its public status. A nil record
// (absent or expired) is unknown.
func ProjectStatus(id string, rec *model.TaskRecord) Status {
	st := Status{TaskID: id, Status: StatusUnknown}
	if rec == nil {
		return st
	}

	switch rec.State {
	case model.TaskStatePending:
		st.Status = StatusPending
	case model.TaskStateRunning:
		st.Status = StatusProcessing
	case model.TaskStateSucceeded:
		st.Status = StatusCompleted
		st.Result = json.RawMessage(rec.Result)
	case model.TaskStateFailed:
		st.Status = StatusFailed
		st.Error = rec.Error
	}
	return st
}
