// Package store persists version chains. Implementations must uphold the
// append-only contract: committed versions are never mutated or deleted, and
// the only in-place write is the conditional retire of the predecessor's
// current tag, performed atomically with the successor's insert.
package store

import (
	"context"

	"provena/internal/record"
	"provena/pkg/domain"
)

// Store is interface-driven so the mutation core stays testable and the
// in-memory and PostgreSQL implementations are interchangeable.
//
// Error contract (pkg/platform/sentinel):
//   - ErrNotFound: no version chain, or no such version number
//   - ErrConflict: InsertFirst on an entity that already has a chain
//   - ErrStaleVersion: CommitSuccessor lost the retire race; the caller must
//     re-read and retry
//   - ErrIntegrity: more than one current version observed; fatal, never
//     auto-repaired
type Store interface {
	// GetCurrent returns the single version tagged current for the entity.
	GetCurrent(ctx context.Context, entityID domain.EntityID) (*record.Version, error)

	// GetVersion returns one historical or current version by number.
	GetVersion(ctx context.Context, entityID domain.EntityID, version int64) (*record.Version, error)

	// ListVersions returns the full chain in ascending version order.
	ListVersions(ctx context.Context, entityID domain.EntityID) ([]*record.Version, error)

	// InsertFirst creates the baseline version of a new entity.
	InsertFirst(ctx context.Context, version *record.Version) error

	// CommitSuccessor atomically retires current (tag CURRENT -> HISTORICAL,
	// conditional on it still being current) and inserts next as the new
	// current version.
	CommitSuccessor(ctx context.Context, current, next *record.Version) error
}
