// This file defines the interfaces used for dependency injection between engine sub-modules.
package engine

import (
	"context"
	"encoding/json"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/notification"
)

// Executor runs the work function of a task.
// Implemented by executor.Executor.
type Executor interface {
	// Validate checks a request before it is accepted.
	// Errors carry ErrCodeInvalidRequest.
	Validate(req task.Request) error

	// Execute runs one attempt for a stored payload and returns the result JSON.
	Execute(ctx context.Context, kind model.TaskKind, payload []byte) (json.RawMessage, error)
}

// Notifier receives task outcome events.
// Implemented by notification.Manager.
type Notifier interface {
	Notify(ctx context.Context, event *notification.Event) error
}
