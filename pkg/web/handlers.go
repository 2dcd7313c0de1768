// Package web provides the read-only HTTP surface over workflow state
// records.
package web

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/terminus-flow/terminus/pkg/models"
	"github.com/terminus-flow/terminus/pkg/statestore"
)

const defaultListLimit = 100

// APIHandlers serves state record queries.
type APIHandlers struct {
	store  statestore.StateStore
	logger *slog.Logger
}

func NewAPIHandlers(store statestore.StateStore, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		store:  store,
		logger: logger.With("module", "web"),
	}
}

// GetRecord returns one state record. State keys contain slashes, so the
// route captures them with a wildcard.
func (h *APIHandlers) GetRecord(c fiber.Ctx) error {
	stateKey := c.Params("*")
	if stateKey == "" {
		return badRequest(c, "state key is required")
	}

	record, err := h.store.GetRecord(c.Context(), stateKey)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(record)
}

// ListRecords returns records in a given state, most recently updated first.
func (h *APIHandlers) ListRecords(c fiber.Ctx) error {
	state, ok := recordState(c.Params("status"))
	if !ok {
		return badRequest(c, "status must be one of PROCESSING, COMPLETED, FAILED, INVALID")
	}

	limit := defaultListLimit

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}

		limit = parsed
	}

	records, err := h.store.ListRecords(c.Context(), state, limit)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(records)
}

// HealthCheck reports state store reachability.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	err := h.store.HealthCheck(c.Context())
	if err != nil {
		h.logger.ErrorContext(c.Context(), "State store health check failed", "error", err)

		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func recordState(raw string) (models.RecordState, bool) {
	switch models.RecordState(raw) {
	case models.RecordStateProcessing, models.RecordStateCompleted, models.RecordStateFailed, models.RecordStateInvalid:
		return models.RecordState(raw), true
	}

	return "", false
}
