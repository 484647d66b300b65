// Package kyc implements the investor verification review workflow on top of
// the versioned record store. Review state lives in the investor record's
// kycStatus attribute; the queue is a projection for reviewer tooling.
package kyc

import (
	"time"

	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
)

// Status is the review state stored in the investor record.
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusApproved         Status = "APPROVED"
	StatusRejected         Status = "REJECTED"
	StatusMoreInfoRequired Status = "MORE_INFO_REQUIRED"
)

// Investor record attribute names owned by this workflow.
const (
	AttrKYCStatus         = "kycStatus"
	AttrIdentityDocument  = "identityDocumentId"
	AttrProofOfAddress    = "proofOfAddressId"
	AttrRejectionReason   = "kycRejectionReason"
	AttrVerificationLevel = "verificationLevel"
	AttrKYCExpiryDate     = "kycExpiryDate"
	AttrAccountStatus     = "accountStatus"
)

// Account and verification values written on approval.
const (
	AccountActive         = "ACTIVE"
	AccountSuspended      = "SUSPENDED"
	VerificationLevelFull = "FULLY_VERIFIED"
)

// ApprovalValidity is how long an approval remains valid before periodic
// re-verification is due.
const ApprovalValidity = 365 * 24 * time.Hour

// transitions lists the legal successor states.
var transitions = map[Status][]Status{
	StatusPending:          {StatusInProgress, StatusApproved, StatusRejected, StatusMoreInfoRequired},
	StatusInProgress:       {StatusApproved, StatusRejected, StatusMoreInfoRequired},
	StatusMoreInfoRequired: {StatusPending},
	StatusApproved:         {},
	StatusRejected:         {},
}

// CanTransition reports whether moving from one review state to another is
// legal. Approved and rejected are terminal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus validates a review state received from outside.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusInProgress, StatusApproved, StatusRejected, StatusMoreInfoRequired:
		return Status(raw), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown kyc status %q", raw)
}

// QueueEntry is one investor awaiting review.
type QueueEntry struct {
	EntityID  domain.EntityID `json:"entityId"`
	Status    Status          `json:"status"`
	EnteredAt time.Time       `json:"enteredAt"`
}

// QueueSnapshot is the reviewer-facing view of the review backlog, each
// section ordered oldest first.
type QueueSnapshot struct {
	Pending          []QueueEntry `json:"pending"`
	InProgress       []QueueEntry `json:"inProgress"`
	RequiresMoreInfo []QueueEntry `json:"requiresMoreInfo"`
	TotalCount       int          `json:"totalCount"`
}
