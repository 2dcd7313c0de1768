// Package reconcile sweeps state records stuck in PROCESSING whose
// execution has already terminated, and replays the terminal outcome through
// the regular processing pipeline. It covers the window where a terminal
// event was lost between the execution engine and the event bus.
package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/terminus-flow/terminus/pkg/awsapi"
	"github.com/terminus-flow/terminus/pkg/models"
	"github.com/terminus-flow/terminus/pkg/statestore"
)

const (
	DefaultStaleAge   = time.Hour
	DefaultSweepLimit = 100
)

// executionRunningStatus is the only engine status that leaves a record
// untouched by the sweep.
const executionRunningStatus = "RUNNING"

// Describer reports the current status of a state machine execution.
type Describer interface {
	DescribeExecution(ctx context.Context, executionArn string) (*awsapi.ExecutionStatus, error)
}

// Processor consumes a synthesized execution event payload.
type Processor interface {
	ProcessExecutionEvent(ctx context.Context, payload []byte) error
}

// Reconciler drives one sweep at a time over stale PROCESSING records.
type Reconciler struct {
	store      statestore.StateStore
	executions Describer
	processor  Processor
	staleAge   time.Duration
	limit      int
	logger     *slog.Logger
}

func NewReconciler(store statestore.StateStore, executions Describer, processor Processor, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:      store,
		executions: executions,
		processor:  processor,
		staleAge:   DefaultStaleAge,
		limit:      DefaultSweepLimit,
		logger:     logger.With("module", "reconcile"),
	}
}

// WithStaleAge overrides how long a record must sit in PROCESSING before the
// sweep considers it.
func (r *Reconciler) WithStaleAge(age time.Duration) *Reconciler {
	r.staleAge = age

	return r
}

// WithSweepLimit overrides how many records one sweep handles.
func (r *Reconciler) WithSweepLimit(limit int) *Reconciler {
	r.limit = limit

	return r
}

// Sweep finds stale records and replays terminal outcomes. Per-record
// failures are logged and skipped so one bad record cannot stall the sweep;
// only the stale listing itself can fail the sweep.
func (r *Reconciler) Sweep(ctx context.Context) error {
	records, err := r.store.ListStale(ctx, r.staleAge, r.limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	r.logger.InfoContext(ctx, "Sweeping stale records", "count", len(records))

	for _, record := range records {
		r.reconcileRecord(ctx, record)
	}

	return nil
}

func (r *Reconciler) reconcileRecord(ctx context.Context, record *models.StateRecord) {
	logger := r.logger.With("state_key", record.StateKey)

	if record.Execution == "" {
		logger.WarnContext(ctx, "Stale record has no execution to reconcile against")

		return
	}

	execution, err := r.executions.DescribeExecution(ctx, record.Execution)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to describe execution", "execution", record.Execution, "error", err)

		return
	}

	if execution.Status == executionRunningStatus {
		return
	}

	payload, err := synthesizeEvent(record.Execution, execution)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build reconciliation event", "error", err)

		return
	}

	err = r.processor.ProcessExecutionEvent(ctx, payload)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to reconcile record", "error", err)

		return
	}

	logger.InfoContext(ctx, "Reconciled stale record", "execution_status", execution.Status)
}

// synthesizeEvent rebuilds the execution event the pipeline would have
// consumed had the terminal notification been delivered.
func synthesizeEvent(executionArn string, execution *awsapi.ExecutionStatus) ([]byte, error) {
	event := map[string]any{
		"source": "aws.states",
		"detail": map[string]any{
			"status":       execution.Status,
			"executionArn": executionArn,
			"input":        execution.Input,
		},
	}

	return json.Marshal(event)
}
