// Package fanout composes the durable audit store with best-effort sinks.
package fanout

import (
	"context"

	audit "provena/internal/audit"
	"provena/internal/audit/sink"
	"provena/pkg/domain"
)

// Store appends to the primary store first, then to each sink. Queries are
// served by the primary store only.
type Store struct {
	primary audit.Store
	sinks   []sink.Appender
}

func New(primary audit.Store, sinks ...sink.Appender) *Store {
	return &Store{primary: primary, sinks: sinks}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if err := s.primary.Append(ctx, event); err != nil {
		return err
	}
	for _, snk := range s.sinks {
		if err := snk.Append(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListByEntity(ctx context.Context, entityID domain.EntityID) ([]audit.Event, error) {
	return s.primary.ListByEntity(ctx, entityID)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.primary.ListRecent(ctx, limit)
}
