package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// memoryStore implements ResultStore in process memory
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]*model.TaskRecord
}

// NewMemoryStore creates an empty in-memory ResultStore
func NewMemoryStore() ResultStore {
	return &memoryStore{records: make(map[string]*model.TaskRecord)}
}

func (s *memoryStore) Create(_ context.Context, rec *model.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return errors.New(errors.ErrCodeStore, "task record already exists: "+rec.ID)
	}
	now := nowFunc()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *memoryStore) Transition(_ context.Context, rec *model.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.records[rec.ID]; ok {
		if err := checkTransition(rec.ID, stored.State, rec.State); err != nil {
			return err
		}
	}

	now := nowFunc()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *memoryStore) Read(_ context.Context, id string) (*model.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || rec.IsExpired(nowFunc()) {
		return nil, errors.ErrTaskNotFound(id)
	}
	return rec.Clone(), nil
}

func (s *memoryStore) Expire(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.records {
		if rec.State.IsTerminal() && rec.IsExpired(now) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) ListUnfinished(_ context.Context) ([]*model.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []*model.TaskRecord
	for _, rec := range s.records {
		if !rec.State.IsTerminal() {
			recs = append(recs, rec.Clone())
		}
	}
	sortByCreated(recs)
	return recs, nil
}

func sortByCreated(recs []*model.TaskRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
}

func (s *memoryStore) Close() error {
	return nil
}
