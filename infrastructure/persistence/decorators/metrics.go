package decorators

import (
	"context"
	"time"

	"journals-backend/application/ports"
	"journals-backend/domain/journal"
)

// OperationRecorder receives the outcome of every store operation.
type OperationRecorder interface {
	ObserveStoreOperation(operation string, err error, took time.Duration)
}

// MetricsStore records count, outcome and latency of store operations
type MetricsStore struct {
	inner    ports.JournalStore
	recorder OperationRecorder
}

// NewMetricsStore creates a new metrics decorator
func NewMetricsStore(inner ports.JournalStore, recorder OperationRecorder) *MetricsStore {
	return &MetricsStore{inner: inner, recorder: recorder}
}

func (s *MetricsStore) List(ctx context.Context, opts ports.ListOptions) ([]journal.Journal, error) {
	start := time.Now()
	journals, err := s.inner.List(ctx, opts)
	s.recorder.ObserveStoreOperation("list", err, time.Since(start))
	return journals, err
}

func (s *MetricsStore) Create(ctx context.Context, fields journal.Fields) (journal.Journal, error) {
	start := time.Now()
	j, err := s.inner.Create(ctx, fields)
	s.recorder.ObserveStoreOperation("create", err, time.Since(start))
	return j, err
}

func (s *MetricsStore) Update(ctx context.Context, id string, patch journal.Patch) (journal.Journal, error) {
	start := time.Now()
	j, err := s.inner.Update(ctx, id, patch)
	s.recorder.ObserveStoreOperation("update", err, time.Since(start))
	return j, err
}

func (s *MetricsStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, id)
	s.recorder.ObserveStoreOperation("delete", err, time.Since(start))
	return err
}
