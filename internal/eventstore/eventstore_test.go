package eventstore

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreAppendAndRetrieve(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, "run-1", "TestEvent", []byte(`{"a":1}`), map[string]string{"key": "value"}))
	require.NoError(t, store.Append(ctx, "run-2", "TestEvent", []byte(`{}`), nil))

	events, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "TestEvent", events[0].Type)
	assert.JSONEq(t, `{"a":1}`, string(events[0].Payload))
	assert.Equal(t, map[string]string{"key": "value"}, events[0].Metadata)
	assert.WithinDuration(t, time.Now(), events[0].Timestamp, time.Minute)

	all, err := store.GetRange(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := store.GetRange(ctx, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRunLogAndHistory(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := t.Context()

	log := NewRunLog(store, "run-1")
	require.NoError(t, log.Started(ctx, RunStarted{Modules: []string{"Kit"}, Inputs: 2}))
	require.NoError(t, log.StageCompleted(ctx, StageCompleted{Stage: "load", Result: "success", DurationMS: 3}))
	require.NoError(t, log.Completed(ctx, RunCompleted{Outcome: "success", Declarations: 10, Coverage: 80, Undocumented: 2, DurationMS: 1500}))

	require.NoError(t, NewRunLog(store, "run-2").Started(ctx, RunStarted{Modules: []string{"Kit"}}))

	runs, err := History(ctx, store, time.Now().Add(-time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	var done *RunSummary
	for _, r := range runs {
		if r.RunID == "run-1" {
			done = r
		}
	}
	require.NotNil(t, done)
	assert.Equal(t, "success", done.Outcome)
	assert.Equal(t, []string{"Kit"}, done.Modules)
	assert.Equal(t, 80, done.Coverage)
	assert.Equal(t, 1500*time.Millisecond, done.Duration)
	require.Len(t, done.Stages, 1)
	assert.Equal(t, "load", done.Stages[0].Stage)
	require.NotNil(t, done.CompletedAt)

	limited, err := History(ctx, store, time.Now().Add(-time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestNilRunLogIsSafe(t *testing.T) {
	var log *RunLog
	require.NoError(t, log.Started(t.Context(), RunStarted{}))
	require.NoError(t, NewRunLog(nil, "x").Completed(t.Context(), RunCompleted{}))
}

func TestSummarizeOrdersNewestFirst(t *testing.T) {
	payload := func(v any) []byte {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return data
	}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	runs := Summarize([]Event{
		{RunID: "old", Type: TypeRunStarted, Timestamp: t0, Payload: payload(RunStarted{})},
		{RunID: "new", Type: TypeRunStarted, Timestamp: t0.Add(time.Hour), Payload: payload(RunStarted{})},
		{RunID: "old", Type: TypeRunCompleted, Timestamp: t0.Add(time.Minute), Payload: []byte("not json")},
		{Type: TypeRunStarted, Timestamp: t0},
	})
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "old", runs[1].RunID)
	assert.Empty(t, runs[1].Outcome)
}
