// Package statestore defines the durable store for workflow state records
// and the transitions the finalization pipeline applies to them.
package statestore

import (
	"context"
	"errors"
	"time"

	"github.com/terminus-flow/terminus/pkg/models"
)

// ErrRecordNotFound is returned when a transition or lookup targets a state
// key with no record.
var ErrRecordNotFound = errors.New("state record not found")

// StateStore persists workflow state records. Transitions mutate exactly one
// record; a transition against a missing record fails with ErrRecordNotFound
// rather than creating one.
type StateStore interface {
	// SaveRecord inserts a record, or fully overwrites the record with the
	// same state key.
	SaveRecord(ctx context.Context, record *models.StateRecord) error

	GetRecord(ctx context.Context, stateKey string) (*models.StateRecord, error)

	// ListRecords returns up to limit records in the given state, most
	// recently updated first.
	ListRecords(ctx context.Context, state models.RecordState, limit int) ([]*models.StateRecord, error)

	// ListStale returns up to limit PROCESSING records whose last update is
	// older than the given age, oldest first.
	ListStale(ctx context.Context, olderThan time.Duration, limit int) ([]*models.StateRecord, error)

	SetCompleted(ctx context.Context, stateKey string) error
	SetFailed(ctx context.Context, stateKey, errorText string) error
	SetInvalid(ctx context.Context, stateKey, errorText string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
