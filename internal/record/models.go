// Package record implements the versioned-record mutation core. Every business
// record is an append-only chain of immutable versions; exactly one version
// per entity is tagged current at any time.
package record

import (
	"time"

	"provena/pkg/domain"
)

// EntityType selects which field policy and critical-field set apply to a
// record.
type EntityType string

const (
	EntityInvestor    EntityType = "INVESTOR"
	EntityProperty    EntityType = "PROPERTY"
	EntityInvestment  EntityType = "INVESTMENT"
	EntityTransaction EntityType = "TRANSACTION"
)

// ParseEntityType validates an entity type string.
func ParseEntityType(s string) (EntityType, bool) {
	switch EntityType(s) {
	case EntityInvestor, EntityProperty, EntityInvestment, EntityTransaction:
		return EntityType(s), true
	}
	return "", false
}

// Tag marks whether a version is the authoritative read target or a retired
// audit copy.
type Tag string

const (
	TagCurrent    Tag = "CURRENT"
	TagHistorical Tag = "HISTORICAL"
)

// BaselineVersion is the version number of the first committed version of an
// entity.
const BaselineVersion int64 = 1

// Version is one immutable snapshot in an entity's chain. Versions are created
// only by the store's commit path; the single permitted in-place mutation is
// the atomic retire of the predecessor's tag when a successor is inserted.
type Version struct {
	EntityID   domain.EntityID
	EntityType EntityType
	Version    int64
	Tag        Tag

	// Attributes is the full business snapshot at this version.
	Attributes map[string]any

	// ChangedFields names exactly the attributes that differ from the
	// previous version's snapshot.
	ChangedFields []string

	// ChangeReason is the stored justification. Present on every version
	// after the first; caller-supplied for critical-field changes,
	// synthesized otherwise.
	ChangeReason string

	// PreviousVersion is the version number this one supersedes; zero on the
	// first version.
	PreviousVersion int64

	UpdatedAt time.Time
	UpdatedBy domain.ActorID
}

// IsCurrent reports whether this version is the authoritative one.
func (v *Version) IsCurrent() bool { return v.Tag == TagCurrent }

// Attr returns a string attribute, or "" when absent or not a string.
func (v *Version) Attr(name string) string {
	if s, ok := v.Attributes[name].(string); ok {
		return s
	}
	return ""
}

// Clone returns a deep copy so callers can never alias a stored snapshot.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	out := *v
	out.Attributes = CloneAttributes(v.Attributes)
	out.ChangedFields = append([]string(nil), v.ChangedFields...)
	return &out
}
