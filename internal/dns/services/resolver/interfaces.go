package resolver

import (
	"context"

	"github.com/haukened/homedns/internal/dns/domain"
)

// RecordLookup is the read side of the record store, all the resolver needs.
type RecordLookup interface {
	// Lookup returns the record stored under a bare, zone-local hostname.
	// The bool is false when no record exists.
	Lookup(ctx context.Context, hostname string) (domain.Record, bool, error)
}

// RecordStore is the full record store contract implemented by the storage
// backends and used by the CLI to manage records.
type RecordStore interface {
	RecordLookup

	// Insert adds a record and returns it with its assigned ID.
	// A hostname that is already present yields domain.ErrConflict.
	Insert(ctx context.Context, rrtype domain.RRType, hostname, value string) (domain.Record, error)

	// Delete removes the record with the given ID, or returns domain.ErrNotFound.
	Delete(ctx context.Context, id uint64) error

	// List returns every record ordered by ID.
	List(ctx context.Context) ([]domain.Record, error)

	// Close releases the underlying database.
	Close() error
}
