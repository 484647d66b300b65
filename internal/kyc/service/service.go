// Package service implements the KYC review workflow. Decisions are record
// mutations first; queue moves, notifications, email and group membership are
// post-commit effects and never fail the decision.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"provena/internal/audit"
	"provena/internal/kyc"
	"provena/internal/kyc/metrics"
	"provena/internal/kyc/queue"
	"provena/internal/notify"
	"provena/internal/record"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/email"
	"provena/pkg/requestcontext"
)

// Records is the record mutation port the workflow drives. The acting
// principal is always passed explicitly.
type Records interface {
	GetCurrent(ctx context.Context, actor domain.Actor, entityID domain.EntityID) (*record.Version, error)
	Update(ctx context.Context, actor domain.Actor, entityID domain.EntityID, patch map[string]any, reason string) (*record.Version, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// elevate returns a copy of the actor carrying the admin role. Decision
// writes touch workflow-owned attributes (account status, verification
// level) that the field policy gates above the reviewer's own role;
// authorization for the decision itself happened before this point. The
// identity is preserved so the new version names the reviewer.
func elevate(actor domain.Actor) domain.Actor {
	return domain.Actor{
		ID:    actor.ID,
		Role:  domain.RoleAdmin,
		Email: actor.Email,
	}
}

type Service struct {
	records    Records
	queue      queue.Queue
	dispatcher notify.Dispatcher
	emailer    notify.Emailer
	groups     notify.AccessGroups
	logger     *slog.Logger
	auditor    AuditPublisher
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifications(dispatcher notify.Dispatcher, emailer notify.Emailer, groups notify.AccessGroups) Option {
	return func(s *Service) {
		s.dispatcher = dispatcher
		s.emailer = emailer
		s.groups = groups
	}
}

func New(records Records, q queue.Queue, opts ...Option) *Service {
	s := &Service{
		records: records,
		queue:   q,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Claim moves a pending case to IN_PROGRESS so other reviewers skip it.
func (s *Service) Claim(ctx context.Context, actor domain.Actor, entityID domain.EntityID) (*record.Version, error) {
	reviewer, err := s.requireReviewer(actor)
	if err != nil {
		return nil, err
	}

	current, status, err := s.loadCase(ctx, reviewer, entityID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(status, kyc.StatusInProgress); err != nil {
		return nil, err
	}

	next, err := s.records.Update(ctx, reviewer, entityID,
		map[string]any{kyc.AttrKYCStatus: string(kyc.StatusInProgress)},
		fmt.Sprintf("Review claimed from queue by %s", reviewer.Identity()))
	if err != nil {
		return nil, err
	}

	s.moveQueue(ctx, entityID, kyc.StatusInProgress, next.UpdatedAt)
	s.emitAudit(ctx, audit.EventKYCClaimed, reviewer, current, nil)
	return next, nil
}

// Approve completes the review positively. Both identity and address
// evidence must be on file; the approval activates the account and elevates
// the investor into the verified group.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, entityID domain.EntityID, notes string) (*record.Version, error) {
	reviewer, err := s.requireReviewer(actor)
	if err != nil {
		return nil, err
	}

	current, status, err := s.loadCase(ctx, reviewer, entityID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(status, kyc.StatusApproved); err != nil {
		return nil, err
	}
	if err := requireDocuments(current); err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("KYC approved by %s", reviewer.Identity())
	if notes = strings.TrimSpace(notes); notes != "" {
		reason = reason + ". " + notes
	}

	expiry := requestcontext.Now(ctx).Add(kyc.ApprovalValidity)
	next, err := s.records.Update(ctx, elevate(reviewer), entityID, map[string]any{
		kyc.AttrKYCStatus:         string(kyc.StatusApproved),
		kyc.AttrAccountStatus:     kyc.AccountActive,
		kyc.AttrVerificationLevel: kyc.VerificationLevelFull,
		kyc.AttrKYCExpiryDate:     expiry.Format(time.RFC3339),
	}, reason)
	if err != nil {
		return nil, err
	}

	s.removeFromQueue(ctx, entityID)
	s.runApprovalEffects(ctx, entityID, current)
	s.emitAudit(ctx, audit.EventKYCApproved, reviewer, current, map[string]any{"notes": notes})
	s.incrementReview("approved")
	return next, nil
}

// Reject completes the review negatively. The rejection reason is stored on
// the record and shown to the investor.
func (s *Service) Reject(ctx context.Context, actor domain.Actor, entityID domain.EntityID, reason string) (*record.Version, error) {
	reviewer, err := s.requireReviewer(actor)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < policyMinReasonLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidReason,
			"rejection requires a justification of at least %d characters", policyMinReasonLength)
	}

	current, status, err := s.loadCase(ctx, reviewer, entityID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(status, kyc.StatusRejected); err != nil {
		return nil, err
	}

	next, err := s.records.Update(ctx, reviewer, entityID, map[string]any{
		kyc.AttrKYCStatus:       string(kyc.StatusRejected),
		kyc.AttrRejectionReason: reason,
	}, reason)
	if err != nil {
		return nil, err
	}

	s.removeFromQueue(ctx, entityID)
	s.notifyInvestor(ctx, entityID, "Verification unsuccessful",
		"Your identity verification was rejected: "+reason)
	s.emitAudit(ctx, audit.EventKYCRejected, reviewer, current, map[string]any{"reason": reason})
	s.incrementReview("rejected")
	return next, nil
}

// RequestMoreInfo pauses the review until the investor provides the
// requested material.
func (s *Service) RequestMoreInfo(ctx context.Context, actor domain.Actor, entityID domain.EntityID, message string) (*record.Version, error) {
	reviewer, err := s.requireReviewer(actor)
	if err != nil {
		return nil, err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, dErrors.New(dErrors.CodeValidation,
			"a message describing the missing information is required")
	}

	current, status, err := s.loadCase(ctx, reviewer, entityID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(status, kyc.StatusMoreInfoRequired); err != nil {
		return nil, err
	}

	next, err := s.records.Update(ctx, reviewer, entityID,
		map[string]any{kyc.AttrKYCStatus: string(kyc.StatusMoreInfoRequired)},
		fmt.Sprintf("More information requested by %s: %s", reviewer.Identity(), message))
	if err != nil {
		return nil, err
	}

	s.moveQueue(ctx, entityID, kyc.StatusMoreInfoRequired, next.UpdatedAt)
	s.notifyInvestor(ctx, entityID, "More information needed", message)
	s.emitAudit(ctx, audit.EventKYCMoreInfoRequested, reviewer, current, map[string]any{"message": message})
	return next, nil
}

// SubmitDocuments records new evidence from the investor and, when the case
// was waiting on them, returns it to the pending queue. Investors may only
// submit against their own record.
func (s *Service) SubmitDocuments(ctx context.Context, actor domain.Actor, entityID domain.EntityID, identityDocID, proofOfAddressID string) (*record.Version, error) {
	if !actor.Role.IsStaff() && actor.ID.String() != entityID.String() {
		return nil, dErrors.New(dErrors.CodeForbidden, "may not submit documents for another investor")
	}
	if identityDocID == "" && proofOfAddressID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}

	current, status, err := s.loadCase(ctx, actor, entityID)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if identityDocID != "" {
		patch[kyc.AttrIdentityDocument] = identityDocID
	}
	if proofOfAddressID != "" {
		patch[kyc.AttrProofOfAddress] = proofOfAddressID
	}

	// A case waiting on the investor returns to the pending queue. The
	// status write is workflow-owned, hence the elevated principal below.
	resubmitted := status == kyc.StatusMoreInfoRequired
	if resubmitted {
		patch[kyc.AttrKYCStatus] = string(kyc.StatusPending)
	}

	next, err := s.records.Update(ctx, elevate(actor), entityID, patch,
		fmt.Sprintf("Verification documents submitted by %s", actor.Identity()))
	if err != nil {
		return nil, err
	}

	if resubmitted {
		s.moveQueue(ctx, entityID, kyc.StatusPending, next.UpdatedAt)
		s.incrementResubmission()
	}
	s.emitAudit(ctx, audit.EventKYCDocumentsSubmitted, actor, current, map[string]any{
		"identity_document": identityDocID != "",
		"proof_of_address":  proofOfAddressID != "",
		"returned_to_queue": resubmitted,
	})
	return next, nil
}

// Queue returns the review backlog. Staff only.
func (s *Service) Queue(ctx context.Context, actor domain.Actor) (*kyc.QueueSnapshot, error) {
	if _, err := s.requireReviewer(actor); err != nil {
		return nil, err
	}
	snapshot, err := s.queue.Snapshot(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load review queue")
	}
	return snapshot, nil
}

const policyMinReasonLength = 10

func (s *Service) requireReviewer(actor domain.Actor) (domain.Actor, error) {
	if !actor.Role.Meets(domain.RoleCompliance) {
		return domain.Actor{}, dErrors.New(dErrors.CodeForbidden,
			"kyc review requires the compliance role")
	}
	return actor, nil
}

func (s *Service) loadCase(ctx context.Context, actor domain.Actor, entityID domain.EntityID) (*record.Version, kyc.Status, error) {
	current, err := s.records.GetCurrent(ctx, actor, entityID)
	if err != nil {
		return nil, "", err
	}
	raw := current.Attr(kyc.AttrKYCStatus)
	if raw == "" {
		return nil, "", dErrors.New(dErrors.CodeValidation, "record has no kyc status")
	}
	status, err := kyc.ParseStatus(raw)
	if err != nil {
		return nil, "", err
	}
	return current, status, nil
}

func (s *Service) checkTransition(from, to kyc.Status) error {
	if !kyc.CanTransition(from, to) {
		return dErrors.Newf(dErrors.CodeValidation,
			"illegal kyc transition %s -> %s", from, to)
	}
	return nil
}

func requireDocuments(current *record.Version) error {
	var missing []string
	if current.Attr(kyc.AttrIdentityDocument) == "" {
		missing = append(missing, kyc.AttrIdentityDocument)
	}
	if current.Attr(kyc.AttrProofOfAddress) == "" {
		missing = append(missing, kyc.AttrProofOfAddress)
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation,
			"cannot approve without documents on file: %s", strings.Join(missing, ", "))
	}
	return nil
}

// runApprovalEffects performs the post-commit side effects of an approval.
// Failures are logged and counted but never roll back the decision.
func (s *Service) runApprovalEffects(ctx context.Context, entityID domain.EntityID, current *record.Version) {
	investorID := domain.ActorID(entityID)

	if s.groups != nil {
		if err := s.groups.Elevate(ctx, investorID, notify.VerifiedInvestorsGroup); err != nil {
			s.logger.WarnContext(ctx, "approval effect failed",
				"effect", "group_elevation", "entity_id", entityID, "error", err)
			s.incrementEffectFailure("group_elevation")
		}
	}

	s.notifyInvestor(ctx, entityID, "Verification approved",
		"Your identity has been verified. You can now invest in live offerings.")

	if s.emailer != nil {
		if addr := current.Attr("email"); addr != "" {
			firstName, _ := email.DeriveNameFromEmail(addr)
			err := s.emailer.Send(ctx, notify.Email{
				To:      addr,
				Subject: "Welcome to Provena",
				Body:    fmt.Sprintf("Hi %s, your verification is complete and your account is active.", firstName),
			})
			if err != nil {
				s.logger.WarnContext(ctx, "approval effect failed",
					"effect", "welcome_email", "entity_id", entityID, "error", err)
				s.incrementEffectFailure("welcome_email")
			}
		}
	}
}

func (s *Service) notifyInvestor(ctx context.Context, entityID domain.EntityID, title, message string) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Send(ctx, notify.Notification{
		RecipientID: domain.ActorID(entityID),
		Title:       title,
		Message:     message,
		Link:        "/account/verification",
	})
	if err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"entity_id", entityID, "error", err)
		s.incrementEffectFailure("notification")
	}
}

func (s *Service) moveQueue(ctx context.Context, entityID domain.EntityID, status kyc.Status, at time.Time) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Put(ctx, entityID, status, at); err != nil {
		s.logger.WarnContext(ctx, "queue update failed",
			"entity_id", entityID, "status", status, "error", err)
		s.incrementEffectFailure("queue")
	}
}

func (s *Service) removeFromQueue(ctx context.Context, entityID domain.EntityID) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Remove(ctx, entityID); err != nil {
		s.logger.WarnContext(ctx, "queue removal failed",
			"entity_id", entityID, "error", err)
		s.incrementEffectFailure("queue")
	}
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, actor domain.Actor, current *record.Version, details map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:      action,
		PerformedBy: actor.ID,
		EntityType:  string(current.EntityType),
		EntityID:    current.EntityID,
		RequestID:   requestcontext.RequestID(ctx),
		Details:     details,
	})
}

func (s *Service) incrementReview(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementReview(outcome)
	}
}

func (s *Service) incrementResubmission() {
	if s.metrics != nil {
		s.metrics.IncrementResubmission()
	}
}

func (s *Service) incrementEffectFailure(effect string) {
	if s.metrics != nil {
		s.metrics.IncrementEffectFailure(effect)
	}
}
