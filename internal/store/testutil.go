package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/database"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/idgen"
)

// SetupTestDB creates a SQLite-backed ResultStore in a temporary directory.
// The store is closed when the test finishes.
func SetupTestDB(t *testing.T) ResultStore {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	s := NewSQLiteStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// NewTestRecord builds a pending record with a fresh id.
// Fields can be overridden by passing functions that modify the record.
func NewTestRecord(overrides ...func(*model.TaskRecord)) *model.TaskRecord {
	rec := &model.TaskRecord{
		ID:      idgen.NewTaskID(),
		Kind:    model.TaskKindPRMetadata,
		State:   model.TaskStatePending,
		Payload: model.JSONRaw(`{"repo_url":"https://github.com/test/repo","pr_number":1}`),
	}
	for _, override := range overrides {
		override(rec)
	}
	return rec
}

// WithExpiry marks a record terminal with the given expiry
func WithExpiry(state model.TaskState, expiresAt time.Time) func(*model.TaskRecord) {
	return func(r *model.TaskRecord) {
		r.State = state
		r.ExpiresAt = &expiresAt
	}
}
