package store

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/database"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// sqliteStore implements ResultStore using GORM
type sqliteStore struct {
	db *gorm.DB
}

// NewSQLiteStore creates a ResultStore over an already migrated database
func NewSQLiteStore(db *gorm.DB) ResultStore {
	return &sqliteStore{db: db}
}

// Create inserts a new task record
func (s *sqliteStore) Create(ctx context.Context, rec *model.TaskRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return errors.Wrap(errors.ErrCodeStore, "failed to create task record", err)
	}
	return nil
}

// Transition upserts the full record on its primary key after checking the
// stored state in the same transaction
func (s *sqliteStore) Transition(ctx context.Context, rec *model.TaskRecord) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored model.TaskRecord
		err := tx.Select("state").Where("id = ?", rec.ID).Take(&stored).Error
		switch {
		case err == nil:
			if err := checkTransition(rec.ID, stored.State, rec.State); err != nil {
				return err
			}
		case !stderrors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
	})
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeStateConflict) {
			return err
		}
		return errors.Wrap(errors.ErrCodeStore, "failed to write task record", err)
	}
	return nil
}

// Read retrieves a record by id, hiding expired records
func (s *sqliteStore) Read(ctx context.Context, id string) (*model.TaskRecord, error) {
	var rec model.TaskRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTaskNotFound(id)
		}
		return nil, errors.Wrap(errors.ErrCodeStore, "failed to read task record", err)
	}
	if rec.IsExpired(nowFunc()) {
		return nil, errors.ErrTaskNotFound(id)
	}
	return &rec, nil
}

// Expire deletes terminal records past their expiry
func (s *sqliteStore) Expire(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Where("state IN ?", []model.TaskState{model.TaskStateSucceeded, model.TaskStateFailed}).
		Delete(&model.TaskRecord{})
	if result.Error != nil {
		return 0, errors.Wrap(errors.ErrCodeStore, "failed to expire task records", result.Error)
	}
	return result.RowsAffected, nil
}

// ListUnfinished returns pending and running records ordered by creation time
func (s *sqliteStore) ListUnfinished(ctx context.Context) ([]*model.TaskRecord, error) {
	var recs []*model.TaskRecord
	err := s.db.WithContext(ctx).
		Where("state IN ?", []model.TaskState{model.TaskStatePending, model.TaskStateRunning}).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, "failed to list unfinished tasks", err)
	}
	return recs, nil
}

// Close closes the database
func (s *sqliteStore) Close() error {
	return database.Close(s.db)
}
