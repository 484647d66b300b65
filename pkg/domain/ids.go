// Package domain holds shared domain primitives: typed identifiers and
// actor roles. IDs are distinct types over uuid.UUID so the compiler rejects
// cross-entity mixups at call sites.
package domain

import (
	"github.com/google/uuid"

	dErrors "provena/pkg/domain-errors"
)

// EntityID identifies a versioned business record (investor, property,
// investment or transaction). It is stable across all versions of the record.
type EntityID uuid.UUID

// ActorID identifies the authenticated caller performing a mutation.
type ActorID uuid.UUID

func (id EntityID) String() string { return uuid.UUID(id).String() }
func (id ActorID) String() string  { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id EntityID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the canonical UUID string form on the wire. Defined
// types do not inherit uuid.UUID's marshalers.
func (id EntityID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ActorID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *EntityID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EntityID(parsed)
	return nil
}

func (id *ActorID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ActorID(parsed)
	return nil
}

// ParseEntityID validates and returns an EntityID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseEntityID(s string) (EntityID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return EntityID{}, err
	}
	return EntityID(parsed), nil
}

// ParseActorID validates and returns an ActorID.
func ParseActorID(s string) (ActorID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return ActorID{}, err
	}
	return ActorID(parsed), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}
