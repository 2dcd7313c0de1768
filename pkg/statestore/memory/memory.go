// Package memory provides an in-memory state store used by tests and local
// development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/terminus-flow/terminus/pkg/models"
	"github.com/terminus-flow/terminus/pkg/statestore"
)

// Store implements statestore.StateStore with a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]*models.StateRecord
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]*models.StateRecord),
	}
}

func (s *Store) SaveRecord(_ context.Context, record *models.StateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[record.StateKey] = &clone

	return nil
}

func (s *Store) GetRecord(_ context.Context, stateKey string) (*models.StateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[stateKey]
	if !ok {
		return nil, statestore.ErrRecordNotFound
	}

	clone := *record

	return &clone, nil
}

func (s *Store) ListRecords(_ context.Context, state models.RecordState, limit int) ([]*models.StateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.matching(func(r *models.StateRecord) bool {
		return r.Status == state
	})

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})

	return truncate(matches, limit), nil
}

func (s *Store) ListStale(_ context.Context, olderThan time.Duration, limit int) ([]*models.StateRecord, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.matching(func(r *models.StateRecord) bool {
		return r.Status == models.RecordStateProcessing && r.UpdatedAt.Before(cutoff)
	})

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.Before(matches[j].UpdatedAt)
	})

	return truncate(matches, limit), nil
}

func (s *Store) matching(keep func(*models.StateRecord) bool) []*models.StateRecord {
	matches := make([]*models.StateRecord, 0)

	for _, record := range s.records {
		if keep(record) {
			clone := *record
			matches = append(matches, &clone)
		}
	}

	return matches
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

func (s *Store) transition(_ context.Context, stateKey string, state models.RecordState, errorText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[stateKey]
	if !ok {
		return statestore.ErrRecordNotFound
	}

	record.Status = state
	record.LastError = errorText
	record.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func truncate(records []*models.StateRecord, limit int) []*models.StateRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}

	return records
}
