// Package service orchestrates versioned record mutations. Every write goes
// through the same commit path: read the current version, diff, authorize the
// changed fields, resolve a change reason, then atomically retire and append.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"provena/internal/audit"
	"provena/internal/record"
	"provena/internal/record/metrics"
	"provena/internal/record/policy"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/platform/sentinel"
	"provena/pkg/requestcontext"
)

type Store interface {
	GetCurrent(ctx context.Context, entityID domain.EntityID) (*record.Version, error)
	GetVersion(ctx context.Context, entityID domain.EntityID, version int64) (*record.Version, error)
	ListVersions(ctx context.Context, entityID domain.EntityID) ([]*record.Version, error)
	InsertFirst(ctx context.Context, version *record.Version) error
	CommitSuccessor(ctx context.Context, current, next *record.Version) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service applies the mutation protocol over a version store.
type Service struct {
	store   Store
	fields  policy.Table
	reasons *policy.ReasonPolicy
	logger  *slog.Logger
	auditor AuditPublisher
	metrics *metrics.Metrics
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

// WithReasonPolicy overrides the default reason policy. Bulk operations use
// this to demand longer justifications.
func WithReasonPolicy(p *policy.ReasonPolicy) Option {
	return func(s *Service) { s.reasons = p }
}

func New(store Store, fields policy.Table, opts ...Option) *Service {
	s := &Service{
		store:   store,
		fields:  fields,
		reasons: policy.NewReasonPolicy(fields, 0, 0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts the baseline version of a new entity. Staff roles only. The
// actor is resolved once at the transport boundary and passed in explicitly.
func (s *Service) Create(ctx context.Context, actor domain.Actor, entityType record.EntityType, entityID domain.EntityID, attributes map[string]any, reason string) (*record.Version, error) {
	if !actor.Role.IsStaff() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only staff may create records")
	}
	if reason == "" {
		reason = "Record created by " + actor.Identity()
	}

	version := &record.Version{
		EntityID:     entityID,
		EntityType:   entityType,
		Version:      record.BaselineVersion,
		Tag:          record.TagCurrent,
		Attributes:   record.CloneAttributes(attributes),
		ChangeReason: reason,
		UpdatedAt:    requestcontext.Now(ctx),
		UpdatedBy:    actor.ID,
	}
	if err := s.store.InsertFirst(ctx, version); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "entity already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
	}

	s.emitAudit(ctx, audit.EventRecordCreated, actor, version, nil)
	s.incrementCommit(entityType)
	return version, nil
}

// Update commits a new version of the entity. The patch is a partial
// attribute map; unchanged values are ignored and an empty diff returns the
// current version without writing anything.
func (s *Service) Update(ctx context.Context, actor domain.Actor, entityID domain.EntityID, patch map[string]any, reason string) (*record.Version, error) {
	if err := s.authorizeWrite(actor, entityID); err != nil {
		return nil, err
	}
	start := time.Now()

	current, err := s.getCurrent(ctx, actor, entityID)
	if err != nil {
		return nil, err
	}

	changed, nextAttrs := record.Diff(current.Attributes, patch)
	if len(changed) == 0 {
		s.incrementNoOp()
		return current, nil
	}

	if err := s.fields.Check(current.EntityType, changed, actor.Role); err != nil {
		s.logger.WarnContext(ctx, "field policy rejected mutation",
			"entity_id", entityID,
			"entity_type", current.EntityType,
			"actor_role", actor.Role,
			"changed_fields", changed,
		)
		return nil, err
	}

	resolvedReason, err := s.reasons.Resolve(current.EntityType, changed, reason, actor)
	if err != nil {
		return nil, err
	}

	next := &record.Version{
		EntityID:        current.EntityID,
		EntityType:      current.EntityType,
		Version:         current.Version + 1,
		Tag:             record.TagCurrent,
		Attributes:      nextAttrs,
		ChangedFields:   changed,
		ChangeReason:    resolvedReason,
		PreviousVersion: current.Version,
		UpdatedAt:       requestcontext.Now(ctx),
		UpdatedBy:       actor.ID,
	}

	if err := s.store.CommitSuccessor(ctx, current, next); err != nil {
		if errors.Is(err, sentinel.ErrStaleVersion) {
			s.incrementConflict(current.EntityType)
			return nil, dErrors.New(dErrors.CodeConcurrent,
				"record was modified concurrently, re-read and retry")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit version")
	}

	s.emitAudit(ctx, audit.EventRecordUpdated, actor, next, map[string]any{
		"changed_fields": changed,
		"change_reason":  resolvedReason,
	})
	s.incrementCommit(current.EntityType)
	s.observeCommit(start)
	return next, nil
}

// GetCurrent returns the current version, enforcing read authorization.
func (s *Service) GetCurrent(ctx context.Context, actor domain.Actor, entityID domain.EntityID) (*record.Version, error) {
	if err := s.authorizeRead(actor, entityID); err != nil {
		return nil, err
	}
	return s.getCurrent(ctx, actor, entityID)
}

// GetVersion returns one version from the entity's history. Staff only; the
// history of a record is review material, not profile data.
func (s *Service) GetVersion(ctx context.Context, actor domain.Actor, entityID domain.EntityID, version int64) (*record.Version, error) {
	if err := s.authorizeHistory(actor); err != nil {
		return nil, err
	}
	v, err := s.store.GetVersion(ctx, entityID, version)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "version not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load version")
	}
	return v, nil
}

// ListVersions returns the full chain, oldest first. Staff only.
func (s *Service) ListVersions(ctx context.Context, actor domain.Actor, entityID domain.EntityID) ([]*record.Version, error) {
	if err := s.authorizeHistory(actor); err != nil {
		return nil, err
	}
	chain, err := s.store.ListVersions(ctx, entityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	}
	return chain, nil
}

func (s *Service) getCurrent(ctx context.Context, actor domain.Actor, entityID domain.EntityID) (*record.Version, error) {
	current, err := s.store.GetCurrent(ctx, entityID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		case errors.Is(err, sentinel.ErrIntegrity):
			s.logger.ErrorContext(ctx, "CRITICAL: multiple current versions observed",
				"entity_id", entityID,
			)
			s.incrementIntegrityViolation()
			s.emitIntegrityAudit(ctx, actor, entityID)
			return nil, dErrors.New(dErrors.CodeInvariant,
				"record integrity violated, manual intervention required")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
		}
	}
	return current, nil
}

// authorizeRead allows staff, or the owner reading their own record.
func (s *Service) authorizeRead(actor domain.Actor, entityID domain.EntityID) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if actor.ID.String() == entityID.String() {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "may not read another investor's record")
}

// authorizeWrite mirrors authorizeRead: staff, or the owner mutating their
// own record. Which fields the owner may change is the field policy's job.
func (s *Service) authorizeWrite(actor domain.Actor, entityID domain.EntityID) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if actor.ID.String() == entityID.String() {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "may not modify another investor's record")
}

func (s *Service) authorizeHistory(actor domain.Actor) error {
	if !actor.Role.IsStaff() {
		return dErrors.New(dErrors.CodeForbidden, "version history is restricted to staff")
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, actor domain.Actor, v *record.Version, details map[string]any) {
	if s.auditor == nil {
		return
	}
	if details == nil {
		details = map[string]any{}
	}
	details["version"] = v.Version
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:      action,
		PerformedBy: actor.ID,
		EntityType:  string(v.EntityType),
		EntityID:    v.EntityID,
		RequestID:   requestcontext.RequestID(ctx),
		Details:     details,
	})
}

func (s *Service) emitIntegrityAudit(ctx context.Context, actor domain.Actor, entityID domain.EntityID) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:      audit.EventIntegrityViolation,
		PerformedBy: actor.ID,
		EntityID:    entityID,
		Severity:    audit.SeverityCritical,
		RequestID:   requestcontext.RequestID(ctx),
	})
}

func (s *Service) incrementCommit(entityType record.EntityType) {
	if s.metrics != nil {
		s.metrics.IncrementCommit(string(entityType))
	}
}

func (s *Service) incrementConflict(entityType record.EntityType) {
	if s.metrics != nil {
		s.metrics.IncrementConflict(string(entityType))
	}
}

func (s *Service) incrementNoOp() {
	if s.metrics != nil {
		s.metrics.IncrementNoOp()
	}
}

func (s *Service) incrementIntegrityViolation() {
	if s.metrics != nil {
		s.metrics.IncrementIntegrityViolation()
	}
}

func (s *Service) observeCommit(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCommit(start)
	}
}
