// Package dispatch maps a terminal classification to a state store
// transition and, for failure outcomes, an enriched notification.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/terminus-flow/terminus/pkg/classify"
	"github.com/terminus-flow/terminus/pkg/models"
	"github.com/terminus-flow/terminus/pkg/notify"
	"github.com/terminus-flow/terminus/pkg/statestore"
)

// CauseExtractor condenses an execution error into a display descriptor.
type CauseExtractor interface {
	Extract(ctx context.Context, execErr *models.ExecutionError) models.ErrorDescriptor
}

// Topics selects the notification topic per outcome class. An empty topic
// disables notification for that class.
type Topics struct {
	Failed  string
	Invalid string
}

// Dispatcher applies the classified outcome of a workflow execution. Store
// and publish failures propagate to the caller so the hosting runtime can
// retry the event; unsupported statuses are logged and ignored.
type Dispatcher struct {
	store     statestore.StateStore
	extractor CauseExtractor
	notifier  notify.Notifier
	topics    Topics
	logger    *slog.Logger
}

func NewDispatcher(store statestore.StateStore, extractor CauseExtractor, notifier notify.Notifier, topics Topics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		extractor: extractor,
		notifier:  notifier,
		topics:    topics,
		logger:    logger.With("module", "dispatch"),
	}
}

// Dispatch transitions the state record for the classification and publishes
// the outcome notification where one is configured.
func (d *Dispatcher) Dispatch(ctx context.Context, classification *classify.Classification) error {
	stateKey := classification.Catalog.ID

	switch classification.Status {
	case models.StatusSucceeded:
		err := d.store.SetCompleted(ctx, stateKey)
		if err != nil {
			return fmt.Errorf("setting state record completed: %w", err)
		}

		d.logger.InfoContext(ctx, "Workflow completed", "state_key", stateKey)

		return nil
	case models.StatusFailed, models.StatusInvalid:
		return d.dispatchFailure(ctx, stateKey, classification.Error)
	default:
		d.logger.InfoContext(ctx, "Status does not support updates",
			"state_key", stateKey,
			"status", string(classification.Status))

		return nil
	}
}

func (d *Dispatcher) dispatchFailure(ctx context.Context, stateKey string, execErr *models.ExecutionError) error {
	desc := d.extractor.Extract(ctx, execErr)
	display := desc.String()

	var (
		transition func(context.Context, string, string) error
		topic      string
		outcome    string
	)

	if desc.Type == models.InvalidInputErrorType {
		transition = d.store.SetInvalid
		topic = d.topics.Invalid
		outcome = "invalid"
	} else {
		transition = d.store.SetFailed
		topic = d.topics.Failed
		outcome = "failed"
	}

	err := transition(ctx, stateKey, display)
	if err != nil {
		return fmt.Errorf("setting state record %s: %w", outcome, err)
	}

	d.logger.InfoContext(ctx, "Workflow "+outcome,
		"state_key", stateKey,
		"error", display)

	if topic == "" {
		return nil
	}

	return d.publishOutcome(ctx, topic, stateKey, display)
}

// publishOutcome re-reads the just-updated record so the notification body
// reflects the committed state.
func (d *Dispatcher) publishOutcome(ctx context.Context, topic, stateKey, display string) error {
	record, err := d.store.GetRecord(ctx, stateKey)
	if err != nil {
		return fmt.Errorf("reading state record for notification: %w", err)
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding notification body: %w", err)
	}

	attributes := map[string]notify.Attribute{
		"collections": notify.StringAttribute(record.Collections),
		"workflow":    notify.StringAttribute(record.Workflow),
		"error":       notify.StringAttribute(display),
	}

	err = d.notifier.Publish(ctx, topic, body, attributes)
	if err != nil {
		return fmt.Errorf("publishing outcome notification: %w", err)
	}

	return nil
}
