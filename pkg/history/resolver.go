// Package history recovers error causes from execution engine history.
package history

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/terminus-flow/terminus/pkg/models"
)

// DefaultMaxEvents bounds the backward history scan when looking for an
// embedded error object.
const DefaultMaxEvents = 10

// API exposes the execution engine's history query, most recent events first.
type API interface {
	ExecutionHistory(ctx context.Context, executionArn string, maxEvents int) ([]Event, error)
}

// Event is one execution history entry. StateEntered is nil for entries that
// carry no state-input document.
type Event struct {
	StateEntered *StateEntered
}

// StateEntered holds the JSON-encoded input document of a state transition.
type StateEntered struct {
	Input string
}

// Resolver walks recent execution history backward to recover the error
// object attached to a failed state, when the terminal event carried none
// inline.
type Resolver struct {
	api       API
	maxEvents int
	logger    *slog.Logger
}

func NewResolver(api API, logger *slog.Logger) *Resolver {
	return &Resolver{
		api:       api,
		maxEvents: DefaultMaxEvents,
		logger:    logger.With("module", "history"),
	}
}

// WithMaxEvents overrides the backward scan bound.
func (r *Resolver) WithMaxEvents(maxEvents int) *Resolver {
	if maxEvents > 0 {
		r.maxEvents = maxEvents
	}

	return r
}

// ResolveCause returns the first embedded error object found in the most
// recent history events, or nil when none is found within the scan bound.
// Query failures degrade to nil: the caller's extraction falls back to a
// generic descriptor instead of aborting the event.
func (r *Resolver) ResolveCause(ctx context.Context, executionArn string) *models.ExecutionError {
	events, err := r.api.ExecutionHistory(ctx, executionArn, r.maxEvents)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query execution history",
			"execution_arn", executionArn,
			"error", err)

		return nil
	}

	for _, event := range events {
		if event.StateEntered == nil {
			continue
		}

		var input struct {
			Error *models.ExecutionError `json:"error"`
		}

		if err := json.Unmarshal([]byte(event.StateEntered.Input), &input); err != nil {
			continue
		}

		if input.Error != nil {
			return input.Error
		}
	}

	r.logger.WarnContext(ctx, "Could not find execution error in recent history events",
		"execution_arn", executionArn,
		"max_events", r.maxEvents)

	return nil
}
