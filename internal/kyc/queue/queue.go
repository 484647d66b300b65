// Package queue maintains the review backlog projection. The version store
// is the source of truth; the queue only orders investors for reviewers and
// can be rebuilt from the record chains at any time.
package queue

import (
	"context"
	"time"

	"provena/internal/kyc"
	"provena/pkg/domain"
)

type Queue interface {
	// Put places the investor in the section for the given status, removing
	// it from any other section first.
	Put(ctx context.Context, entityID domain.EntityID, status kyc.Status, enteredAt time.Time) error

	// Remove drops the investor from all sections. Called on terminal states.
	Remove(ctx context.Context, entityID domain.EntityID) error

	// Snapshot returns all sections ordered oldest first.
	Snapshot(ctx context.Context) (*kyc.QueueSnapshot, error)
}

// queueStatuses are the sections the backlog tracks. Terminal states never
// appear in the queue.
var queueStatuses = []kyc.Status{
	kyc.StatusPending,
	kyc.StatusInProgress,
	kyc.StatusMoreInfoRequired,
}
