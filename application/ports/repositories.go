package ports

import (
	"context"

	"journals-backend/domain/journal"
)

// ListOptions controls a List call
type ListOptions struct {
	// Fields projects each record onto the named attributes. The identifier
	// is always returned. Empty means every attribute.
	Fields []string
}

// JournalStore defines the interface for journal persistence.
// Every method assumes the connection gate has already let the request through.
type JournalStore interface {
	// List returns every record in insertion order. An empty store yields an
	// empty slice, never an error.
	List(ctx context.Context, opts ListOptions) ([]journal.Journal, error)

	// Create persists a new record and returns it with its assigned identifier
	Create(ctx context.Context, fields journal.Fields) (journal.Journal, error)

	// Update merges the supplied fields into an existing record
	Update(ctx context.Context, id string, patch journal.Patch) (journal.Journal, error)

	// Delete removes a record
	Delete(ctx context.Context, id string) error
}

// ConnectionGate ensures a usable record store connection exists
type ConnectionGate interface {
	EnsureReady(ctx context.Context) error
}
