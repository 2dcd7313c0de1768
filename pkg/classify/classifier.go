// Package classify decodes the raw event payloads the finalization pipeline
// consumes and normalizes them into a single shape: the affected catalog, a
// terminal status, and whatever error detail accompanied it.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terminus-flow/terminus/pkg/models"
)

// ErrUnknownPayload marks a payload that matches none of the supported event
// shapes. Callers are expected to drop such events rather than retry them.
var ErrUnknownPayload = errors.New("payload matches no supported event shape")

// executionEventSource identifies state machine lifecycle notifications.
const executionEventSource = "aws.states"

// Classification is the normalized outcome of a consumed event.
type Classification struct {
	Catalog *models.Catalog
	Status  models.TerminalStatus
	Error   *models.ExecutionError
}

// CatalogDecoder resolves the catalog document embedded in, or referenced
// by, a payload.
type CatalogDecoder interface {
	FromPayload(ctx context.Context, payload []byte) (*models.Catalog, error)
}

// CauseResolver recovers the error a failed execution recorded in its
// history.
type CauseResolver interface {
	ResolveCause(ctx context.Context, executionArn string) *models.ExecutionError
}

type envelope struct {
	Error  json.RawMessage `json:"error"`
	Source string          `json:"source"`
	Detail *struct {
		Status       string `json:"status"`
		ExecutionArn string `json:"executionArn"`
		Input        string `json:"input"`
	} `json:"detail"`
}

// Classifier maps raw payloads to classifications.
type Classifier struct {
	catalogs CatalogDecoder
	history  CauseResolver
	logger   *slog.Logger
}

func NewClassifier(catalogs CatalogDecoder, history CauseResolver, logger *slog.Logger) *Classifier {
	return &Classifier{
		catalogs: catalogs,
		history:  history,
		logger:   logger.With("module", "classify"),
	}
}

// Classify detects which of the two supported shapes the payload carries. A
// payload with a top level error field is treated as a direct failure
// report; one with an execution event source and detail block is treated as
// a state machine lifecycle notification. Anything else is ErrUnknownPayload.
func (c *Classifier) Classify(ctx context.Context, payload []byte) (*Classification, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownPayload, err)
	}

	if env.Error != nil {
		return c.classifyFailure(ctx, payload, env.Error)
	}

	if env.Source == executionEventSource && env.Detail != nil {
		return c.classifyExecutionEvent(ctx, &env)
	}

	return nil, ErrUnknownPayload
}

// ClassifyFailure treats the payload as a direct failure report regardless
// of shape. A payload without an error field still classifies, with empty
// error detail.
func (c *Classifier) ClassifyFailure(ctx context.Context, payload []byte) (*Classification, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownPayload, err)
	}

	return c.classifyFailure(ctx, payload, env.Error)
}

func (c *Classifier) classifyFailure(ctx context.Context, payload, rawError []byte) (*Classification, error) {
	cat, err := c.catalogs.FromPayload(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("resolving catalog from failure payload: %w", err)
	}

	classification := &Classification{
		Catalog: cat,
		Status:  models.StatusFailed,
	}

	if len(rawError) > 0 {
		var execErr models.ExecutionError
		if err := json.Unmarshal(rawError, &execErr); err != nil {
			return nil, fmt.Errorf("%w: malformed error field: %w", ErrUnknownPayload, err)
		}

		classification.Error = &execErr
	}

	return classification, nil
}

func (c *Classifier) classifyExecutionEvent(ctx context.Context, env *envelope) (*Classification, error) {
	if env.Detail.Status == "" {
		return nil, fmt.Errorf("%w: execution event without status", ErrUnknownPayload)
	}

	// Statuses outside the dispatcher's supported set still classify; the
	// dispatcher decides whether they update anything.
	status := models.TerminalStatus(env.Detail.Status)

	cat, err := c.catalogs.FromPayload(ctx, []byte(env.Detail.Input))
	if err != nil {
		return nil, fmt.Errorf("resolving catalog from execution input: %w", err)
	}

	classification := &Classification{
		Catalog: cat,
		Status:  status,
	}

	if status == models.StatusFailed {
		classification.Error = c.history.ResolveCause(ctx, env.Detail.ExecutionArn)
	}

	return classification, nil
}
