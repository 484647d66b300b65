package bulk

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"provena/internal/audit"
	bulkmetrics "provena/internal/bulk/metrics"
	"provena/internal/kyc"
	"provena/internal/notify"
	"provena/internal/record"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/requestcontext"
)

// BulkMinReasonLength is the justification floor for bulk rejections and
// suspensions. Stricter than single mutations because one reason covers the
// whole batch.
const BulkMinReasonLength = 20

// Reviews is the KYC decision port.
type Reviews interface {
	Approve(ctx context.Context, actor domain.Actor, entityID domain.EntityID, notes string) (*record.Version, error)
	Reject(ctx context.Context, actor domain.Actor, entityID domain.EntityID, reason string) (*record.Version, error)
}

// Records is the record mutation port used for suspensions.
type Records interface {
	Update(ctx context.Context, actor domain.Actor, entityID domain.EntityID, patch map[string]any, reason string) (*record.Version, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs administrative operations over batches of investors. The
// actor's role is checked once, before any entity is touched; per-entity
// failures are isolated by the runner.
type Service struct {
	runner     *Runner
	reviews    Reviews
	records    Records
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	auditor    AuditPublisher
	metrics    *bulkmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *bulkmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithDispatcher(dispatcher notify.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = dispatcher }
}

func New(runner *Runner, reviews Reviews, records Records, opts ...Option) *Service {
	s := &Service{
		runner:  runner,
		reviews: reviews,
		records: records,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApproveKYC approves every id in the batch.
func (s *Service) ApproveKYC(ctx context.Context, actor domain.Actor, ids []domain.EntityID, notes string) (*Result, error) {
	if err := s.requireRole(actor, domain.RoleCompliance); err != nil {
		return nil, err
	}
	if err := validateBatch(ids); err != nil {
		return nil, err
	}

	result := s.runner.Run(ctx, ids, func(ctx context.Context, entityID domain.EntityID) error {
		_, err := s.reviews.Approve(ctx, actor, entityID, notes)
		return err
	})
	s.finish(ctx, "kyc_approve", actor, result)
	return result, nil
}

// RejectKYC rejects every id in the batch with one shared justification.
func (s *Service) RejectKYC(ctx context.Context, actor domain.Actor, ids []domain.EntityID, reason string) (*Result, error) {
	if err := s.requireRole(actor, domain.RoleCompliance); err != nil {
		return nil, err
	}
	if err := validateBatch(ids); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < BulkMinReasonLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidReason,
			"bulk rejection requires a justification of at least %d characters", BulkMinReasonLength)
	}

	result := s.runner.Run(ctx, ids, func(ctx context.Context, entityID domain.EntityID) error {
		_, err := s.reviews.Reject(ctx, actor, entityID, reason)
		return err
	})
	s.finish(ctx, "kyc_reject", actor, result)
	return result, nil
}

// Suspend sets accountStatus to SUSPENDED on every id. Admin only.
func (s *Service) Suspend(ctx context.Context, actor domain.Actor, ids []domain.EntityID, reason string) (*Result, error) {
	if err := s.requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateBatch(ids); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < BulkMinReasonLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidReason,
			"bulk suspension requires a justification of at least %d characters", BulkMinReasonLength)
	}

	result := s.runner.Run(ctx, ids, func(ctx context.Context, entityID domain.EntityID) error {
		_, err := s.records.Update(ctx, actor, entityID,
			map[string]any{kyc.AttrAccountStatus: kyc.AccountSuspended}, reason)
		return err
	})
	s.finish(ctx, "suspend", actor, result)
	return result, nil
}

// Notify sends the same in-app notification to every id. Support and above.
func (s *Service) Notify(ctx context.Context, actor domain.Actor, ids []domain.EntityID, title, message string) (*Result, error) {
	if err := s.requireRole(actor, domain.RoleSupport); err != nil {
		return nil, err
	}
	if err := validateBatch(ids); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(message) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title and message are required")
	}
	if s.dispatcher == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "no notification dispatcher configured")
	}

	result := s.runner.Run(ctx, ids, func(ctx context.Context, entityID domain.EntityID) error {
		return s.dispatcher.Send(ctx, notify.Notification{
			RecipientID: domain.ActorID(entityID),
			Title:       title,
			Message:     message,
		})
	})
	s.finish(ctx, "notify", actor, result)
	return result, nil
}

func (s *Service) requireRole(actor domain.Actor, min domain.Role) error {
	if !actor.Role.Meets(min) {
		return dErrors.Newf(dErrors.CodeForbidden,
			"bulk operation requires the %s role", min)
	}
	return nil
}

func validateBatch(ids []domain.EntityID) error {
	if len(ids) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one entity id is required")
	}
	return nil
}

func (s *Service) finish(ctx context.Context, operation string, actor domain.Actor, result *Result) {
	s.logger.InfoContext(ctx, "bulk operation finished",
		"operation", operation,
		"total", result.TotalProcessed,
		"succeeded", result.SuccessCount,
		"failed", result.FailureCount,
	)
	if s.metrics != nil {
		s.metrics.ObserveBatch(operation, result.TotalProcessed, result.FailureCount)
	}
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Action:      audit.EventBulkOperation,
			PerformedBy: actor.ID,
			EntityType:  string(record.EntityInvestor),
			RequestID:   requestcontext.RequestID(ctx),
			Details: map[string]any{
				"operation": operation,
				"total":     result.TotalProcessed,
				"succeeded": result.SuccessCount,
				"failed":    result.FailureCount,
			},
		})
	}
}
