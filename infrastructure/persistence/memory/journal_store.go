// Package memory provides a process-local journal store for development and tests.
package memory

import (
	"context"
	"sync"

	"journals-backend/application/ports"
	"journals-backend/domain/journal"
	apperrors "journals-backend/pkg/errors"

	"github.com/google/uuid"
)

// JournalStore keeps journals in a map guarded by a RWMutex. Records are
// returned in insertion order.
type JournalStore struct {
	mu      sync.RWMutex
	records map[string]journal.Journal
	order   []string

	dialMu  sync.Mutex
	dialErr error
	dials   int
}

// NewJournalStore creates an empty store
func NewJournalStore() *JournalStore {
	return &JournalStore{
		records: make(map[string]journal.Journal),
	}
}

// Dial implements connection.Dialer. It fails with the error set by
// SetDialError, which lets tests and local runs simulate an unreachable store.
func (s *JournalStore) Dial(ctx context.Context) error {
	s.dialMu.Lock()
	defer s.dialMu.Unlock()
	s.dials++
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialErr
}

// SetDialError makes subsequent dials fail with err (nil to recover).
func (s *JournalStore) SetDialError(err error) {
	s.dialMu.Lock()
	defer s.dialMu.Unlock()
	s.dialErr = err
}

// Dials returns how many times Dial was called.
func (s *JournalStore) Dials() int {
	s.dialMu.Lock()
	defer s.dialMu.Unlock()
	return s.dials
}

// List returns all journals
func (s *JournalStore) List(ctx context.Context, opts ports.ListOptions) ([]journal.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]journal.Journal, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Project(opts.Fields))
	}
	return out, nil
}

// Create stores a new journal under a fresh identifier
func (s *JournalStore) Create(ctx context.Context, fields journal.Fields) (journal.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := journal.Journal{ID: uuid.NewString(), Fields: fields}
	s.records[j.ID] = j
	s.order = append(s.order, j.ID)
	return j, nil
}

// Update merges patch into the stored journal
func (s *JournalStore) Update(ctx context.Context, id string, patch journal.Patch) (journal.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.records[id]
	if !ok {
		return journal.Journal{}, apperrors.NewNotFound("Journal not found")
	}
	j.Apply(patch)
	s.records[id] = j
	return j, nil
}

// Delete removes the journal
func (s *JournalStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return apperrors.NewNotFound("Journal not found")
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
