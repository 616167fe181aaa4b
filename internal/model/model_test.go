package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to TaskState
		want     bool
	}{
		{TaskStatePending, TaskStateRunning, true},
		{TaskStatePending, TaskStateFailed, true},
		{TaskStateRunning, TaskStateRunning, true},
		{TaskStateRunning, TaskStateSucceeded, true},
		{TaskStateRunning, TaskStateFailed, true},
		{TaskStateRunning, TaskStatePending, false},
		{TaskStateSucceeded, TaskStateRunning, false},
		{TaskStateFailed, TaskStateSucceeded, false},
		{TaskStatePending, TaskState("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTaskKind_Valid(t *testing.T) {
	assert.True(t, TaskKindPRMetadata.Valid())
	assert.True(t, TaskKindCodeAnalysis.Valid())
	assert.False(t, TaskKind("lint").Valid())
}

func TestJSONRaw(t *testing.T) {
	t.Run("value and scan", func(t *testing.T) {
		v, err := JSONRaw(`{"a":1}`).Value()
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, v)

		empty, err := JSONRaw(nil).Value()
		require.NoError(t, err)
		assert.Nil(t, empty)

		var j JSONRaw
		require.NoError(t, j.Scan([]byte(`[1,2]`)))
		assert.Equal(t, `[1,2]`, string(j))
		require.NoError(t, j.Scan(nil))
		assert.Nil(t, j)
		assert.Error(t, j.Scan(42))
	})

	t.Run("json embedding", func(t *testing.T) {
		rec := TaskRecord{ID: "x", Result: JSONRaw(`{"title":"Fix bug"}`)}
		data, err := json.Marshal(rec)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"result":{"title":"Fix bug"}`)

		var back TaskRecord
		require.NoError(t, json.Unmarshal(data, &back))
		assert.JSONEq(t, `{"title":"Fix bug"}`, string(back.Result))
	})
}

func TestTaskRecord_IsExpired(t *testing.T) {
	now := time.Now()
	rec := &TaskRecord{}
	assert.False(t, rec.IsExpired(now), "no expiry set")

	past := now.Add(-time.Second)
	rec.ExpiresAt = &past
	assert.True(t, rec.IsExpired(now))

	future := now.Add(time.Hour)
	rec.ExpiresAt = &future
	assert.False(t, rec.IsExpired(now))
}

func TestTaskRecord_Clone(t *testing.T) {
	started := time.Now()
	rec := &TaskRecord{ID: "a", Payload: JSONRaw(`{}`), StartedAt: &started}
	c := rec.Clone()

	c.Payload[0] = '['
	*c.StartedAt = started.Add(time.Hour)

	assert.Equal(t, `{}`, string(rec.Payload))
	assert.Equal(t, started, *rec.StartedAt)
	assert.Nil(t, (*TaskRecord)(nil).Clone())
}
