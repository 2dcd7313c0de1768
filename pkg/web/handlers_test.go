package web_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminus-flow/terminus/pkg/models"
	"github.com/terminus-flow/terminus/pkg/statestore/memory"
	"github.com/terminus-flow/terminus/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	handlers := web.NewAPIHandlers(store, slog.Default())

	app := fiber.New()
	app.Get("/health", handlers.HealthCheck)
	app.Get("/records/status/:status", handlers.ListRecords)
	app.Get("/records/*", handlers.GetRecord)

	return app, store
}

func seedRecord(t *testing.T, store *memory.Store, key string, state models.RecordState) {
	t.Helper()

	require.NoError(t, store.SaveRecord(context.Background(), &models.StateRecord{
		StateKey:    key,
		Collections: "sentinel-2",
		Workflow:    "cog",
		Status:      state,
		LastError:   "",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}))
}

func TestGetRecord(t *testing.T) {
	app, store := setupTestApp(t)
	seedRecord(t, store, "sentinel-2/workflow-cog/item-1", models.RecordStateFailed)

	resp, err := app.Test(httptest.NewRequest("GET", "/records/sentinel-2/workflow-cog/item-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var record models.StateRecord
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Equal(t, "sentinel-2/workflow-cog/item-1", record.StateKey)
	assert.Equal(t, models.RecordStateFailed, record.Status)
}

func TestGetRecordNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/records/sentinel-2/workflow-cog/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListRecordsByStatus(t *testing.T) {
	app, store := setupTestApp(t)
	seedRecord(t, store, "sentinel-2/workflow-cog/item-1", models.RecordStateFailed)
	seedRecord(t, store, "sentinel-2/workflow-cog/item-2", models.RecordStateCompleted)

	resp, err := app.Test(httptest.NewRequest("GET", "/records/status/FAILED", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var records []models.StateRecord
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "sentinel-2/workflow-cog/item-1", records[0].StateKey)
}

func TestListRecordsRejectsUnknownStatus(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/records/status/RUNNING", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListRecordsRejectsBadLimit(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/records/status/FAILED?limit=zero", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
