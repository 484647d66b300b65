// Package audit captures the compliance trail of privileged actions. Events
// are emitted from domain logic and fanned out to durable stores and sinks.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"provena/pkg/domain"
)

// Severity classifies events for downstream routing and alerting.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Action string

const (
	// Record events
	EventRecordCreated Action = "record_created"
	EventRecordUpdated Action = "record_updated"

	// KYC review events
	EventKYCClaimed            Action = "kyc_claimed"
	EventKYCApproved           Action = "kyc_approved"
	EventKYCRejected           Action = "kyc_rejected"
	EventKYCMoreInfoRequested  Action = "kyc_more_info_requested"
	EventKYCDocumentsSubmitted Action = "kyc_documents_submitted"

	// Bulk operation events
	EventBulkOperation Action = "bulk_operation"

	// Role events
	EventRoleRemoved Action = "role_removed"

	// Integrity events
	EventIntegrityViolation Action = "integrity_violation"
)

// eventSeverities maps each action to its default severity. Integrity
// violations are the only events that page; everything else is trail.
var eventSeverities = map[Action]Severity{
	EventRecordCreated:         SeverityInfo,
	EventRecordUpdated:         SeverityInfo,
	EventKYCClaimed:            SeverityInfo,
	EventKYCApproved:           SeverityInfo,
	EventKYCRejected:           SeverityWarning,
	EventKYCMoreInfoRequested:  SeverityInfo,
	EventKYCDocumentsSubmitted: SeverityInfo,
	EventBulkOperation:         SeverityWarning,
	EventRoleRemoved:           SeverityWarning,
	EventIntegrityViolation:    SeverityCritical,
}

// DefaultSeverity returns the severity for this action.
// Unknown actions default to SeverityInfo.
func (a Action) DefaultSeverity() Severity {
	if s, ok := eventSeverities[a]; ok {
		return s
	}
	return SeverityInfo
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Action      Action          `json:"action"`
	PerformedBy domain.ActorID  `json:"performedBy"`
	EntityType  string          `json:"entityType"`
	EntityID    domain.EntityID `json:"entityId"`
	Severity    Severity        `json:"severity"`
	RequestID   string          `json:"requestId,omitempty"`
	Details     map[string]any  `json:"details,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityID domain.EntityID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
