// Package store provides the task result store.
// A ResultStore holds one TaskRecord per task id. Writes are last-write-wins per key
// and terminal records become invisible once their expiry passes.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/database"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// ResultStore is the only shared mutable state between submitters, workers and pollers.
type ResultStore interface {
	// Create inserts a new record. It fails if the id already exists.
	Create(ctx context.Context, rec *model.TaskRecord) error

	// Transition writes rec in full, replacing any existing record with the same id.
	// A write that would move the stored state backwards, or change a terminal
	// record, fails with ErrCodeStateConflict and leaves the record unchanged.
	Transition(ctx context.Context, rec *model.TaskRecord) error

	// Read returns the record for id, or an ErrCodeTaskNotFound error when the
	// record is absent or expired.
	Read(ctx context.Context, id string) (*model.TaskRecord, error)

	// Expire deletes terminal records whose expiry is at or before now.
	Expire(ctx context.Context, now time.Time) (int64, error)

	// ListUnfinished returns pending and running records, oldest first.
	ListUnfinished(ctx context.Context) ([]*model.TaskRecord, error)

	// Close releases backend resources.
	Close() error
}

// Open creates the backend selected by cfg.Driver
func Open(cfg config.StoreConfig) (ResultStore, error) {
	switch cfg.Driver {
	case config.StoreDriverSQLite, "":
		db, err := database.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(db), nil
	case config.StoreDriverRedis:
		return NewRedisStore(NewRedisClient(cfg.Redis), cfg.Redis.KeyPrefix), nil
	case config.StoreDriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

// nowFunc is replaced in tests
var nowFunc = time.Now

// checkTransition rejects a write from the stored state to next unless the
// lifecycle keeps moving forward
func checkTransition(id string, stored, next model.TaskState) error {
	if stored.CanTransitionTo(next) {
		return nil
	}
	return errors.New(errors.ErrCodeStateConflict,
		fmt.Sprintf("task %s cannot move from %s to %s", id, stored, next))
}
