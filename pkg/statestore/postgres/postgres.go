// Package postgres provides the PostgreSQL state store implementation.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/terminus-flow/terminus/pkg/models"
	"github.com/terminus-flow/terminus/pkg/statestore"
	"github.com/terminus-flow/terminus/pkg/statestore/sqlbase"
)

// Store implements statestore.StateStore on PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore connects to the database and runs pending migrations.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*Store, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{
		db:     database,
		logger: logger,
	}, nil
}

func (s *Store) SaveRecord(ctx context.Context, record *models.StateRecord) error {
	query := `
		INSERT INTO state_records (state_key, collections, workflow, execution, status, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (state_key) DO UPDATE SET
			collections = EXCLUDED.collections,
			workflow = EXCLUDED.workflow,
			execution = EXCLUDED.execution,
			status = EXCLUDED.status,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		record.StateKey,
		record.Collections,
		record.Workflow,
		nullable(record.Execution),
		string(record.Status),
		nullable(record.LastError),
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save state record: %w", err)
	}

	return nil
}

func (s *Store) GetRecord(ctx context.Context, stateKey string) (*models.StateRecord, error) {
	query := `
		SELECT state_key, collections, workflow, execution, status, last_error, created_at, updated_at
		FROM state_records
		WHERE state_key = $1
	`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, stateKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, statestore.ErrRecordNotFound
		}

		return nil, fmt.Errorf("failed to get state record: %w", err)
	}

	return record, nil
}

func (s *Store) ListRecords(ctx context.Context, state models.RecordState, limit int) ([]*models.StateRecord, error) {
	query := `
		SELECT state_key, collections, workflow, execution, status, last_error, created_at, updated_at
		FROM state_records
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, string(state), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list state records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *Store) ListStale(ctx context.Context, olderThan time.Duration, limit int) ([]*models.StateRecord, error) {
	query := `
		SELECT state_key, collections, workflow, execution, status, last_error, created_at, updated_at
		FROM state_records
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`

	cutoff := time.Now().UTC().Add(-olderThan)

	rows, err := s.db.QueryContext(ctx, query, string(models.RecordStateProcessing), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale state records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *Store) SetCompleted(ctx context.Context, stateKey string) error {
	return s.transition(ctx, stateKey, models.RecordStateCompleted, "")
}

func (s *Store) SetFailed(ctx context.Context, stateKey, errorText string) error {
	return s.transition(ctx, stateKey, models.RecordStateFailed, errorText)
}

func (s *Store) SetInvalid(ctx context.Context, stateKey, errorText string) error {
	return s.transition(ctx, stateKey, models.RecordStateInvalid, errorText)
}

func (s *Store) transition(ctx context.Context, stateKey string, state models.RecordState, errorText string) error {
	query := `
		UPDATE state_records
		SET status = $1, last_error = $2, updated_at = $3
		WHERE state_key = $4
	`

	result, err := s.db.ExecContext(ctx, query, string(state), nullable(errorText), time.Now().UTC(), stateKey)
	if err != nil {
		return fmt.Errorf("failed to transition state record to %s: %w", state, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check transition result: %w", err)
	}

	if affected == 0 {
		return statestore.ErrRecordNotFound
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.StateRecord, error) {
	var (
		record    models.StateRecord
		status    string
		execution sql.NullString
		lastError sql.NullString
	)

	err := row.Scan(
		&record.StateKey,
		&record.Collections,
		&record.Workflow,
		&execution,
		&status,
		&lastError,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = models.RecordState(status)
	record.Execution = execution.String
	record.LastError = lastError.String

	return &record, nil
}

func collectRecords(rows *sql.Rows) ([]*models.StateRecord, error) {
	records := make([]*models.StateRecord, 0)

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan state record: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate state records: %w", err)
	}

	return records, nil
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
