package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// redisStore keeps each record as a JSON string. Terminal records carry a native
// TTL so Redis evicts them without a sweep; the unfinished index is a set.
type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a Redis client from store settings
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
	})
}

// NewRedisStore creates a Redis-backed ResultStore
func NewRedisStore(client *redis.Client, prefix string) ResultStore {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) recordKey(id string) string { return s.prefix + id }
func (s *redisStore) unfinishedKey() string     { return s.prefix + "unfinished" }

// ttlFor returns the remaining lifetime of rec, 0 for no expiry and a negative
// value when the record is already expired.
func ttlFor(rec *model.TaskRecord, now time.Time) time.Duration {
	if rec.ExpiresAt == nil {
		return 0
	}
	ttl := rec.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return -1
	}
	return ttl
}

func (s *redisStore) Create(ctx context.Context, rec *model.TaskRecord) error {
	now := nowFunc()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, "failed to encode task record", err)
	}

	ok, err := s.client.SetNX(ctx, s.recordKey(rec.ID), data, 0).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, fmt.Sprintf("redis create %s", rec.ID), err)
	}
	if !ok {
		return errors.New(errors.ErrCodeStore, "task record already exists: "+rec.ID)
	}
	if err := s.client.SAdd(ctx, s.unfinishedKey(), rec.ID).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, fmt.Sprintf("redis index %s", rec.ID), err)
	}
	return nil
}

// Transition checks the stored state under WATCH so a concurrent writer
// aborts the write instead of overwriting a newer state
func (s *redisStore) Transition(ctx context.Context, rec *model.TaskRecord) error {
	now := nowFunc()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, "failed to encode task record", err)
	}

	key := s.recordKey(rec.ID)
	ttl := ttlFor(rec, now)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var stored model.TaskRecord
			if err := json.Unmarshal(current, &stored); err != nil {
				return err
			}
			if err := checkTransition(rec.ID, stored.State, rec.State); err != nil {
				return err
			}
		case !stderrors.Is(err, redis.Nil):
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if ttl < 0 {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, data, ttl)
			}
			if rec.State.IsTerminal() {
				pipe.SRem(ctx, s.unfinishedKey(), rec.ID)
			} else {
				pipe.SAdd(ctx, s.unfinishedKey(), rec.ID)
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeStateConflict) {
			return err
		}
		return errors.Wrap(errors.ErrCodeStore, fmt.Sprintf("redis write %s", rec.ID), err)
	}
	return nil
}

func (s *redisStore) Read(ctx context.Context, id string) (*model.TaskRecord, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.ErrTaskNotFound(id)
		}
		return nil, errors.Wrap(errors.ErrCodeStore, fmt.Sprintf("redis get %s", id), err)
	}

	var rec model.TaskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, "failed to decode task record", err)
	}
	if rec.IsExpired(nowFunc()) {
		return nil, errors.ErrTaskNotFound(id)
	}
	return &rec, nil
}

// Expire relies on key TTLs for eviction and only prunes index entries whose
// record is gone. The returned count is the number of pruned entries.
func (s *redisStore) Expire(ctx context.Context, _ time.Time) (int64, error) {
	ids, err := s.client.SMembers(ctx, s.unfinishedKey()).Result()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStore, "redis list unfinished", err)
	}

	var pruned int64
	for _, id := range ids {
		n, err := s.client.Exists(ctx, s.recordKey(id)).Result()
		if err != nil {
			return pruned, errors.Wrap(errors.ErrCodeStore, fmt.Sprintf("redis exists %s", id), err)
		}
		if n == 0 {
			if err := s.client.SRem(ctx, s.unfinishedKey(), id).Err(); err != nil {
				return pruned, errors.Wrap(errors.ErrCodeStore, fmt.Sprintf("redis unindex %s", id), err)
			}
			pruned++
		}
	}
	return pruned, nil
}

func (s *redisStore) ListUnfinished(ctx context.Context) ([]*model.TaskRecord, error) {
	ids, err := s.client.SMembers(ctx, s.unfinishedKey()).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, "redis list unfinished", err)
	}

	recs := make([]*model.TaskRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Read(ctx, id)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeTaskNotFound) {
				continue
			}
			return nil, err
		}
		if !rec.State.IsTerminal() {
			recs = append(recs, rec)
		}
	}
	sortByCreated(recs)
	return recs, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
