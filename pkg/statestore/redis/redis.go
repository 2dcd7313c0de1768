// Package redis provides the Redis state store implementation. Records are
// stored as JSON strings keyed by state key, with one sorted set per record
// state ordered by update time for listing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/terminus-flow/terminus/pkg/models"
	"github.com/terminus-flow/terminus/pkg/statestore"
)

const (
	recordKeyPrefix = "terminus:state:"
	statusKeyPrefix = "terminus:status:"
)

// Store implements statestore.StateStore on Redis.
type Store struct {
	client *goredis.Client
	logger *slog.Logger
}

func NewStore(ctx context.Context, logger *slog.Logger, redisURL string) (*Store, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client: client,
		logger: logger,
	}, nil
}

func recordKey(stateKey string) string {
	return recordKeyPrefix + stateKey
}

func statusKey(state models.RecordState) string {
	return statusKeyPrefix + string(state)
}

func (s *Store) SaveRecord(ctx context.Context, record *models.StateRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode state record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(record.StateKey), data, 0)

	for _, state := range allRecordStates() {
		if state == record.Status {
			continue
		}

		pipe.ZRem(ctx, statusKey(state), record.StateKey)
	}

	pipe.ZAdd(ctx, statusKey(record.Status), goredis.Z{
		Score:  float64(record.UpdatedAt.UnixNano()),
		Member: record.StateKey,
	})

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save state record: %w", err)
	}

	return nil
}

func (s *Store) GetRecord(ctx context.Context, stateKey string) (*models.StateRecord, error) {
	data, err := s.client.Get(ctx, recordKey(stateKey)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, statestore.ErrRecordNotFound
		}

		return nil, fmt.Errorf("failed to get state record: %w", err)
	}

	var record models.StateRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to decode state record: %w", err)
	}

	return &record, nil
}

func (s *Store) ListRecords(ctx context.Context, state models.RecordState, limit int) ([]*models.StateRecord, error) {
	keys, err := s.client.ZRevRange(ctx, statusKey(state), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list state records: %w", err)
	}

	return s.collectRecords(ctx, keys)
}

func (s *Store) ListStale(ctx context.Context, olderThan time.Duration, limit int) ([]*models.StateRecord, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	keys, err := s.client.ZRangeByScore(ctx, statusKey(models.RecordStateProcessing), &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", cutoff.UnixNano()),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list stale state records: %w", err)
	}

	return s.collectRecords(ctx, keys)
}

func (s *Store) collectRecords(ctx context.Context, keys []string) ([]*models.StateRecord, error) {
	records := make([]*models.StateRecord, 0, len(keys))

	for _, key := range keys {
		record, err := s.GetRecord(ctx, key)
		if err != nil {
			// The sorted set can briefly reference a record overwritten by a
			// concurrent save. Skip it rather than failing the listing.
			if errors.Is(err, statestore.ErrRecordNotFound) {
				s.logger.WarnContext(ctx, "Status index references missing record", "state_key", key)

				continue
			}

			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
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
	record, err := s.GetRecord(ctx, stateKey)
	if err != nil {
		return err
	}

	record.Status = state
	record.LastError = errorText
	record.UpdatedAt = time.Now().UTC()

	return s.SaveRecord(ctx, record)
}

func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	err := s.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	return nil
}

func allRecordStates() []models.RecordState {
	return []models.RecordState{
		models.RecordStateProcessing,
		models.RecordStateCompleted,
		models.RecordStateFailed,
		models.RecordStateInvalid,
	}
}
