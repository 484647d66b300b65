package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	audit "provena/internal/audit"
	"provena/pkg/domain"
)

// Store persists audit events in the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_events (
			id, occurred_at, action, performed_by, entity_type, entity_id, severity, details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	var entityID *uuid.UUID
	if !event.EntityID.IsZero() {
		eid := uuid.UUID(event.EntityID)
		entityID = &eid
	}

	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		string(event.Action),
		uuid.UUID(event.PerformedBy),
		event.EntityType,
		entityID,
		string(event.Severity),
		details,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByEntity(ctx context.Context, entityID domain.EntityID) ([]audit.Event, error) {
	query := `
		SELECT id, occurred_at, action, performed_by, entity_type, entity_id, severity, details
		FROM audit_events
		WHERE entity_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(entityID))
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, occurred_at, action, performed_by, entity_type, entity_id, severity, details
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent audit events: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

func collect(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e           audit.Event
			action      string
			performedBy uuid.UUID
			entityID    *uuid.UUID
			severity    string
			details     []byte
		)
		err := rows.Scan(&e.ID, &e.Timestamp, &action, &performedBy,
			&e.EntityType, &entityID, &severity, &details)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		e.PerformedBy = domain.ActorID(performedBy)
		if entityID != nil {
			e.EntityID = domain.EntityID(*entityID)
		}
		e.Severity = audit.Severity(severity)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit events: %w", err)
	}
	return events, nil
}
