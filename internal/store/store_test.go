package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// backends returns every ResultStore that needs no external service
func backends(t *testing.T) map[string]ResultStore {
	return map[string]ResultStore{
		"sqlite": SetupTestDB(t),
		"memory": NewMemoryStore(),
	}
}

func TestResultStore_CreateAndRead(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := NewTestRecord()
			require.NoError(t, s.Create(ctx, rec))

			got, err := s.Read(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
			assert.Equal(t, model.TaskStatePending, got.State)
			assert.Equal(t, model.TaskKindPRMetadata, got.Kind)
			assert.JSONEq(t, string(rec.Payload), string(got.Payload))
		})
	}
}

func TestResultStore_CreateDuplicate(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := NewTestRecord()
			require.NoError(t, s.Create(ctx, rec))

			dup := NewTestRecord(func(r *model.TaskRecord) { r.ID = rec.ID })
			err := s.Create(ctx, dup)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeStore))
		})
	}
}

func TestResultStore_ReadMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Read(context.Background(), "does-not-exist")
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeTaskNotFound))
		})
	}
}

func TestResultStore_TransitionLastWriteWins(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := NewTestRecord()
			require.NoError(t, s.Create(ctx, rec))

			rec.State = model.TaskStateRunning
			rec.Attempt = 1
			rec.LastError = "first attempt failed"
			require.NoError(t, s.Transition(ctx, rec))

			rec.State = model.TaskStateSucceeded
			rec.Result = model.JSONRaw(`{"title":"Fix bug"}`)
			rec.LastError = ""
			require.NoError(t, s.Transition(ctx, rec))

			got, err := s.Read(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, model.TaskStateSucceeded, got.State)
			assert.Equal(t, 1, got.Attempt)
			assert.Empty(t, got.LastError)
			assert.JSONEq(t, `{"title":"Fix bug"}`, string(got.Result))
		})
	}
}

func TestResultStore_TransitionIsForwardOnly(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := NewTestRecord()
			require.NoError(t, s.Create(ctx, rec))

			rec.State = model.TaskStateRunning
			rec.Attempt = 1
			require.NoError(t, s.Transition(ctx, rec))

			// a retried attempt stays running
			rec.Attempt = 2
			require.NoError(t, s.Transition(ctx, rec))

			rec.State = model.TaskStatePending
			err := s.Transition(ctx, rec)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeStateConflict))

			done := *rec
			done.State = model.TaskStateSucceeded
			done.Result = model.JSONRaw(`{"title":"Fix bug"}`)
			require.NoError(t, s.Transition(ctx, &done))

			stale := *rec
			stale.State = model.TaskStateRunning
			stale.Attempt = 3
			err = s.Transition(ctx, &stale)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeStateConflict))

			failed := done
			failed.State = model.TaskStateFailed
			assert.True(t, errors.HasCode(s.Transition(ctx, &failed), errors.ErrCodeStateConflict))

			got, err := s.Read(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, model.TaskStateSucceeded, got.State)
			assert.Equal(t, 2, got.Attempt)
			assert.JSONEq(t, `{"title":"Fix bug"}`, string(got.Result))
		})
	}
}

func TestResultStore_TransitionInsertsMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := NewTestRecord(func(r *model.TaskRecord) { r.State = model.TaskStateRunning })
			require.NoError(t, s.Transition(ctx, rec))

			got, err := s.Read(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, model.TaskStateRunning, got.State)
		})
	}
}

func TestResultStore_ExpiredRecordsAreHidden(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := NewTestRecord(WithExpiry(model.TaskStateSucceeded, time.Now().Add(-time.Second)))
			require.NoError(t, s.Transition(ctx, rec))

			_, err := s.Read(ctx, rec.ID)
			assert.True(t, errors.HasCode(err, errors.ErrCodeTaskNotFound))
		})
	}
}

func TestResultStore_Expire(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()

			expired := NewTestRecord(WithExpiry(model.TaskStateFailed, now.Add(-time.Minute)))
			live := NewTestRecord(WithExpiry(model.TaskStateSucceeded, now.Add(time.Hour)))
			pending := NewTestRecord()
			require.NoError(t, s.Transition(ctx, expired))
			require.NoError(t, s.Transition(ctx, live))
			require.NoError(t, s.Create(ctx, pending))

			n, err := s.Expire(ctx, now)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			_, err = s.Read(ctx, live.ID)
			assert.NoError(t, err)
			_, err = s.Read(ctx, pending.ID)
			assert.NoError(t, err)

			n, err = s.Expire(ctx, now)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestResultStore_ListUnfinished(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first := NewTestRecord()
			require.NoError(t, s.Create(ctx, first))
			time.Sleep(5 * time.Millisecond)
			second := NewTestRecord(func(r *model.TaskRecord) { r.Kind = model.TaskKindCodeAnalysis })
			require.NoError(t, s.Create(ctx, second))
			done := NewTestRecord()
			require.NoError(t, s.Create(ctx, done))

			second.State = model.TaskStateRunning
			require.NoError(t, s.Transition(ctx, second))
			done.State = model.TaskStateFailed
			done.Error = "boom"
			require.NoError(t, s.Transition(ctx, done))

			recs, err := s.ListUnfinished(ctx)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, first.ID, recs[0].ID)
			assert.Equal(t, second.ID, recs[1].ID)
			assert.Equal(t, model.TaskStateRunning, recs[1].State)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := NewTestRecord()
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.Read(ctx, rec.ID)
	require.NoError(t, err)
	got.State = model.TaskStateFailed

	again, err := s.Read(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatePending, again.State)
}

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := Open(config.StoreConfig{Driver: config.StoreDriverMemory})
		require.NoError(t, err)
		assert.NoError(t, s.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(config.StoreConfig{
			Driver: config.StoreDriverSQLite,
			SQLite: config.SQLiteConfig{Path: t.TempDir() + "/nested/tasks.db"},
		})
		require.NoError(t, err)
		assert.NoError(t, s.Close())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(config.StoreConfig{Driver: "etcd"})
		assert.Error(t, err)
	})
}

func TestTTLFor(t *testing.T) {
	now := time.Now()
	assert.Equal(t, time.Duration(0), ttlFor(&model.TaskRecord{}, now))

	future := now.Add(time.Minute)
	assert.Equal(t, time.Minute, ttlFor(&model.TaskRecord{ExpiresAt: &future}, now))

	past := now.Add(-time.Minute)
	assert.Less(t, ttlFor(&model.TaskRecord{ExpiresAt: &past}, now), time.Duration(0))
}
