// Package model defines the persisted data models for the application.
// Models use GORM tags for the SQLite backend and JSON tags for the Redis backend.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONRaw stores an opaque JSON document in a TEXT column
type JSONRaw json.RawMessage

// Value implements driver.Valuer interface
func (j JSONRaw) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner interface
func (j *JSONRaw) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONRaw(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONRaw", value)
	}
	return nil
}

// MarshalJSON emits the raw document, or null when empty
func (j JSONRaw) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON stores a copy of data
func (j *JSONRaw) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[:0], data...)
	return nil
}

// TaskKind identifies the work a task performs
type TaskKind string

const (
	TaskKindPRMetadata   TaskKind = "pr_metadata"
	TaskKindCodeAnalysis TaskKind = "code_analysis"
)

// Valid reports whether k is a known kind
func (k TaskKind) Valid() bool {
	return k == TaskKindPRMetadata || k == TaskKindCodeAnalysis
}

// TaskState is the internal lifecycle state of a task.
// It only moves forward: pending, running, then succeeded or failed.
type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateRunning   TaskState = "running"
	TaskStateSucceeded TaskState = "succeeded"
	TaskStateFailed    TaskState = "failed"
)

// IsTerminal reports whether no further transitions can occur
func (s TaskState) IsTerminal() bool {
	return s == TaskStateSucceeded || s == TaskStateFailed
}

// rank orders states for forward-only checks
func (s TaskState) rank() int {
	switch s {
	case TaskStatePending:
		return 0
	case TaskStateRunning:
		return 1
	case TaskStateSucceeded, TaskStateFailed:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle monotonic.
// running -> running is allowed for retried attempts.
func (s TaskState) CanTransitionTo(next TaskState) bool {
	if s.IsTerminal() {
		return false
	}
	return next.rank() >= 0 && next.rank() >= s.rank()
}

// TaskRecord is the stored state of one task, keyed by ID.
// Result is set only when succeeded, Error only when failed.
type TaskRecord struct {
	ID        string    `gorm:"primarykey;size:20" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind    TaskKind  `gorm:"size:32;not null;index" json:"kind"`
	State   TaskState `gorm:"size:16;not null;index" json:"state"`
	Attempt int       `gorm:"not null;default:0" json:"attempt"`

	// Payload is the serialized request, kept for recovery after restart
	Payload JSONRaw `gorm:"type:text" json:"payload,omitempty"`
	Result  JSONRaw `gorm:"type:text" json:"result,omitempty"`
	Error   string  `gorm:"type:text" json:"error,omitempty"`
	// LastError is the most recent attempt failure, kept while retries remain
	LastError string `gorm:"type:text" json:"last_error,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at,omitempty"`
}

// TableName specifies the table name for TaskRecord
func (TaskRecord) TableName() string {
	return "tasks"
}

// IsExpired reports whether a terminal record has outlived its retention window
func (r *TaskRecord) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// Clone returns a deep copy safe to hand across goroutines
func (r *TaskRecord) Clone() *TaskRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Payload = append(JSONRaw(nil), r.Payload...)
	c.Result = append(JSONRaw(nil), r.Result...)
	c.StartedAt = cloneTime(r.StartedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	c.ExpiresAt = cloneTime(r.ExpiresAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// AllModels returns all models for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&TaskRecord{},
	}
}
