package policy

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"provena/internal/record"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	platformstrings "provena/pkg/platform/strings"
)

// Reason length bounds. Bulk rejections demand a longer justification because
// one string is reused across many records.
const (
	DefaultMinReasonLength     = 10
	DefaultBulkMinReasonLength = 20
	DefaultMaxReasonLength     = 500
)

// ReasonPolicy resolves the stored change reason for a mutation: critical
// field changes require a caller-supplied justification within length bounds;
// non-critical changes fall back to a synthesized reason naming the actor.
type ReasonPolicy struct {
	table     Table
	minLength int
	maxLength int
}

// NewReasonPolicy builds a reason policy over the shared write-policy table.
// minLength <= 0 selects the default.
func NewReasonPolicy(table Table, minLength, maxLength int) *ReasonPolicy {
	if minLength <= 0 {
		minLength = DefaultMinReasonLength
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxReasonLength
	}
	return &ReasonPolicy{table: table, minLength: minLength, maxLength: maxLength}
}

// MinLength returns the configured minimum caller-supplied reason length.
func (p *ReasonPolicy) MinLength() int { return p.minLength }

// Resolve returns the change reason to store for a mutation, or an
// invalid_reason error naming the critical fields that triggered the
// requirement.
func (p *ReasonPolicy) Resolve(entityType record.EntityType, changedFields []string, suppliedReason string, actor domain.Actor) (string, error) {
	supplied := strings.TrimSpace(suppliedReason)

	critical := p.table.CriticalChanged(entityType, changedFields)
	if len(critical) > 0 {
		if supplied == "" {
			return "", dErrors.Newf(dErrors.CodeInvalidReason,
				"changing critical field(s) %s requires an explicit justification of at least %d characters",
				strings.Join(critical, ", "), p.minLength)
		}
		// Bounds count characters, not bytes, so multibyte justifications
		// are not penalized.
		if utf8.RuneCountInString(supplied) < p.minLength {
			return "", dErrors.Newf(dErrors.CodeInvalidReason,
				"justification for critical field(s) %s must be at least %d characters",
				strings.Join(critical, ", "), p.minLength)
		}
		if utf8.RuneCountInString(supplied) > p.maxLength {
			return "", dErrors.Newf(dErrors.CodeInvalidReason,
				"justification must be at most %d characters", p.maxLength)
		}
		return supplied, nil
	}

	if supplied != "" {
		if utf8.RuneCountInString(supplied) > p.maxLength {
			return "", dErrors.Newf(dErrors.CodeInvalidReason,
				"justification must be at most %d characters", p.maxLength)
		}
		return supplied, nil
	}

	return p.synthesize(entityType, changedFields, actor), nil
}

// synthesize builds a reason for non-critical changes. Single-field changes
// use a per-field template when one exists; anything else gets the generic
// fallback. The actor identity is always embedded for traceability.
func (p *ReasonPolicy) synthesize(entityType record.EntityType, changedFields []string, actor domain.Actor) string {
	fields := platformstrings.DedupeAndTrim(changedFields)
	if len(fields) == 1 {
		if tmpl, ok := reasonTemplates[entityType][fields[0]]; ok {
			return fmt.Sprintf(tmpl, actor.Identity())
		}
		return fmt.Sprintf("Field %s updated by %s", fields[0], actor.Identity())
	}
	return fmt.Sprintf("Fields %s updated by %s", strings.Join(fields, ", "), actor.Identity())
}

// reasonTemplates keys synthesized reasons by entity type and the single
// changed field. The verb matters for audit readability; keep these in past
// tense.
var reasonTemplates = map[record.EntityType]map[string]string{
	record.EntityInvestor: {
		"phoneNumber":       "Contact phone number updated by %s",
		"address":           "Postal address updated by %s",
		"preferredCurrency": "Preferred currency changed by %s",
		"marketingOptIn":    "Marketing preference changed by %s",
	},
	record.EntityProperty: {
		"description":  "Listing description revised by %s",
		"amenities":    "Amenity list revised by %s",
		"photos":       "Photo set updated by %s",
		"rentalStatus": "Rental status updated by %s",
	},
}
