package postgres_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/terminus-flow/terminus/pkg/models"
	"github.com/terminus-flow/terminus/pkg/statestore"
	"github.com/terminus-flow/terminus/pkg/statestore/postgres"
)

var postgresContainer *tcpostgres.PostgresContainer

func dropTables(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"state_records", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestStore(t *testing.T) (*postgres.Store, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed store test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("terminus_test"),
			tcpostgres.WithUsername("terminus"),
			tcpostgres.WithPassword("terminus"),
			tcpostgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropTables(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := postgres.NewStore(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropTables(ctx, t, databaseURL)

		err = store.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return store, ctx, databaseURL
}

func TestNewStore_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestStore(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'state_records')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "state_records table should exist")
}

func TestStoreLifecycle(t *testing.T) {
	store, ctx, _ := setupTestStore(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &models.StateRecord{
		StateKey:    "sentinel-2/workflow-cog/item-1",
		Collections: "sentinel-2",
		Workflow:    "cog",
		Execution:   "arn:aws:states:us-west-2:123:execution:cog:run-1",
		Status:      models.RecordStateProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	require.NoError(t, store.SaveRecord(ctx, record))

	got, err := store.GetRecord(ctx, record.StateKey)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStateProcessing, got.Status)
	assert.Equal(t, "sentinel-2", got.Collections)
	assert.Equal(t, "cog", got.Workflow)

	require.NoError(t, store.SetFailed(ctx, record.StateKey, "ValueError: bad input"))

	got, err = store.GetRecord(ctx, record.StateKey)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStateFailed, got.Status)
	assert.Equal(t, "ValueError: bad input", got.LastError)

	failed, err := store.ListRecords(ctx, models.RecordStateFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, record.StateKey, failed[0].StateKey)
}

func TestStoreTransitionMissingRecord(t *testing.T) {
	store, ctx, _ := setupTestStore(t)

	err := store.SetCompleted(ctx, "missing")

	assert.ErrorIs(t, err, statestore.ErrRecordNotFound)
}

func TestStoreListStale(t *testing.T) {
	store, ctx, _ := setupTestStore(t)

	now := time.Now().UTC()
	stale := &models.StateRecord{
		StateKey:    "sentinel-2/workflow-cog/stuck",
		Collections: "sentinel-2",
		Workflow:    "cog",
		Status:      models.RecordStateProcessing,
		CreatedAt:   now.Add(-3 * time.Hour),
		UpdatedAt:   now.Add(-3 * time.Hour),
	}
	fresh := &models.StateRecord{
		StateKey:    "sentinel-2/workflow-cog/running",
		Collections: "sentinel-2",
		Workflow:    "cog",
		Status:      models.RecordStateProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	require.NoError(t, store.SaveRecord(ctx, stale))
	require.NoError(t, store.SaveRecord(ctx, fresh))

	records, err := store.ListStale(ctx, time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, stale.StateKey, records[0].StateKey)
}
