package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terminus-flow/terminus/pkg/models"
	"github.com/terminus-flow/terminus/pkg/statestore"
)

func newRecord(key string, state models.RecordState, updatedAt time.Time) *models.StateRecord {
	return &models.StateRecord{
		StateKey:    key,
		Collections: "sentinel-2",
		Workflow:    "cog",
		Status:      state,
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}
}

func TestSaveAndGetRecord(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	record := newRecord("sentinel-2/workflow-cog/item-1", models.RecordStateProcessing, time.Now().UTC())
	require.NoError(t, store.SaveRecord(ctx, record))

	got, err := store.GetRecord(ctx, record.StateKey)
	require.NoError(t, err)
	assert.Equal(t, record.StateKey, got.StateKey)
	assert.Equal(t, models.RecordStateProcessing, got.Status)
}

func TestGetRecordNotFound(t *testing.T) {
	store := NewStore()

	_, err := store.GetRecord(context.Background(), "missing")

	assert.ErrorIs(t, err, statestore.ErrRecordNotFound)
}

func TestTransitions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	record := newRecord("sentinel-2/workflow-cog/item-1", models.RecordStateProcessing, time.Now().UTC())
	require.NoError(t, store.SaveRecord(ctx, record))

	require.NoError(t, store.SetFailed(ctx, record.StateKey, "ValueError: bad input"))

	got, err := store.GetRecord(ctx, record.StateKey)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStateFailed, got.Status)
	assert.Equal(t, "ValueError: bad input", got.LastError)

	require.NoError(t, store.SetCompleted(ctx, record.StateKey))

	got, err = store.GetRecord(ctx, record.StateKey)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStateCompleted, got.Status)
	assert.Empty(t, got.LastError)
}

func TestTransitionMissingRecord(t *testing.T) {
	store := NewStore()

	err := store.SetInvalid(context.Background(), "missing", "boom")

	assert.ErrorIs(t, err, statestore.ErrRecordNotFound)
}

func TestListRecordsByState(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, store.SaveRecord(ctx, newRecord("a", models.RecordStateFailed, base.Add(-2*time.Hour))))
	require.NoError(t, store.SaveRecord(ctx, newRecord("b", models.RecordStateFailed, base.Add(-1*time.Hour))))
	require.NoError(t, store.SaveRecord(ctx, newRecord("c", models.RecordStateCompleted, base)))

	records, err := store.ListRecords(ctx, models.RecordStateFailed, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].StateKey, "most recently updated first")
	assert.Equal(t, "a", records[1].StateKey)
}

func TestListStale(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, store.SaveRecord(ctx, newRecord("old", models.RecordStateProcessing, base.Add(-3*time.Hour))))
	require.NoError(t, store.SaveRecord(ctx, newRecord("fresh", models.RecordStateProcessing, base)))
	require.NoError(t, store.SaveRecord(ctx, newRecord("done", models.RecordStateCompleted, base.Add(-3*time.Hour))))

	records, err := store.ListStale(ctx, time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "old", records[0].StateKey)
}
