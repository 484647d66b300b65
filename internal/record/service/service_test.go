package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"provena/internal/audit"
	auditmem "provena/internal/audit/store/memory"
	"provena/internal/record"
	"provena/internal/record/policy"
	"provena/internal/record/store"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/platform/sentinel"
	"provena/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	audits  *auditmem.InMemoryStore
	service *Service

	compliance domain.Actor
	support    domain.Actor
	admin      domain.Actor
	investor   domain.Actor
	now        time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.audits = auditmem.NewInMemoryStore()
	s.service = New(s.store, policy.DefaultTable(),
		WithAuditPublisher(recordingPublisher{store: s.audits}),
	)

	s.compliance = domain.Actor{ID: domain.ActorID(uuid.New()), Role: domain.RoleCompliance, Email: "reviewer@provena.test"}
	s.support = domain.Actor{ID: domain.ActorID(uuid.New()), Role: domain.RoleSupport, Email: "support@provena.test"}
	s.admin = domain.Actor{ID: domain.ActorID(uuid.New()), Role: domain.RoleAdmin, Email: "admin@provena.test"}
	s.investor = domain.Actor{ID: domain.ActorID(uuid.New()), Role: domain.RoleInvestor, Email: "investor@provena.test"}
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// recordingPublisher appends events synchronously so tests can assert on them.
type recordingPublisher struct {
	store *auditmem.InMemoryStore
}

func (p recordingPublisher) Emit(ctx context.Context, event audit.Event) error {
	return p.store.Append(ctx, event)
}

func (s *ServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) createInvestor(attrs map[string]any) domain.EntityID {
	entityID := domain.EntityID(uuid.New())
	if attrs == nil {
		attrs = map[string]any{
			"email":       "a@example.com",
			"kycStatus":   "PENDING",
			"phoneNumber": "+351911111111",
		}
	}
	_, err := s.service.Create(s.ctx(), s.admin, record.EntityInvestor, entityID, attrs, "")
	s.Require().NoError(err)
	return entityID
}

func (s *ServiceSuite) TestCreate() {
	s.Run("baseline version is 1 and current", func() {
		entityID := s.createInvestor(nil)

		current, err := s.service.GetCurrent(s.ctx(), s.admin, entityID)
		s.Require().NoError(err)
		s.Equal(record.BaselineVersion, current.Version)
		s.True(current.IsCurrent())
		s.NotEmpty(current.ChangeReason)
	})

	s.Run("duplicate entity conflicts", func() {
		entityID := s.createInvestor(nil)
		_, err := s.service.Create(s.ctx(), s.admin, record.EntityInvestor, entityID, nil, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("non-staff may not create", func() {
		_, err := s.service.Create(s.ctx(), s.investor, record.EntityInvestor,
			domain.EntityID(uuid.New()), nil, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestUpdateNoOp() {
	entityID := s.createInvestor(nil)

	got, err := s.service.Update(s.ctx(), s.compliance, entityID, map[string]any{
		"kycStatus": "PENDING",
		"email":     "a@example.com",
	}, "")
	s.Require().NoError(err)
	s.Equal(record.BaselineVersion, got.Version, "identical patch must not create a version")

	chain, err := s.service.ListVersions(s.ctx(), s.compliance, entityID)
	s.Require().NoError(err)
	s.Len(chain, 1)
}

func (s *ServiceSuite) TestCriticalFieldGating() {
	entityID := s.createInvestor(nil)

	s.Run("missing reason is rejected without a write", func() {
		_, err := s.service.Update(s.ctx(), s.compliance, entityID,
			map[string]any{"kycStatus": "APPROVED"}, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidReason))

		chain, err := s.service.ListVersions(s.ctx(), s.compliance, entityID)
		s.Require().NoError(err)
		s.Len(chain, 1)
	})

	s.Run("valid reason commits and is stored verbatim", func() {
		got, err := s.service.Update(s.ctx(), s.compliance, entityID,
			map[string]any{"kycStatus": "APPROVED"}, "Documents verified against registry")
		s.Require().NoError(err)
		s.Equal(int64(2), got.Version)
		s.Equal([]string{"kycStatus"}, got.ChangedFields)
		s.Equal("Documents verified against registry", got.ChangeReason)
		s.Equal(s.compliance.ID, got.UpdatedBy)
		s.Equal(s.now, got.UpdatedAt)
	})
}

func (s *ServiceSuite) TestFieldAuthorization() {
	entityID := s.createInvestor(nil)

	s.Run("support may not change kyc status", func() {
		_, err := s.service.Update(s.ctx(), s.support, entityID,
			map[string]any{"kycStatus": "APPROVED"}, "Documents verified against registry")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("one forbidden field rejects the whole patch", func() {
		_, err := s.service.Update(s.ctx(), s.support, entityID, map[string]any{
			"phoneNumber": "+351922222222",
			"kycStatus":   "APPROVED",
		}, "Documents verified against registry")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		current, err := s.service.GetCurrent(s.ctx(), s.support, entityID)
		s.Require().NoError(err)
		s.Equal("+351911111111", current.Attributes["phoneNumber"],
			"allowed fields must not be partially applied")
	})
}

func (s *ServiceSuite) TestWriteAuthorization() {
	entityID := s.createInvestor(nil)

	s.Run("another investor may not write", func() {
		_, err := s.service.Update(s.ctx(), s.investor, entityID,
			map[string]any{"phoneNumber": "+351955555555"}, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		chain, err := s.service.ListVersions(s.ctx(), s.admin, entityID)
		s.Require().NoError(err)
		s.Len(chain, 1, "a forbidden write must not create a version")
	})

	s.Run("owner may update own unrestricted fields", func() {
		owner := domain.Actor{ID: domain.ActorID(uuid.UUID(entityID)), Role: domain.RoleInvestor, Email: "a@example.com"}
		got, err := s.service.Update(s.ctx(), owner, entityID,
			map[string]any{"phoneNumber": "+351966666666"}, "")
		s.Require().NoError(err)
		s.Equal(int64(2), got.Version)
		s.Equal(owner.ID, got.UpdatedBy)
	})
}

func (s *ServiceSuite) TestNonCriticalReasonSynthesis() {
	entityID := s.createInvestor(nil)

	got, err := s.service.Update(s.ctx(), s.support, entityID,
		map[string]any{"phoneNumber": "+351922222222"}, "")
	s.Require().NoError(err)
	s.Equal(int64(2), got.Version)
	s.Contains(got.ChangeReason, "phone number")
	s.Contains(got.ChangeReason, s.support.Email)
}

func (s *ServiceSuite) TestVersionContiguity() {
	entityID := s.createInvestor(nil)

	for i, phone := range []string{"+351922222222", "+351933333333", "+351944444444"} {
		got, err := s.service.Update(s.ctx(), s.support, entityID,
			map[string]any{"phoneNumber": phone}, "")
		s.Require().NoError(err)
		s.Equal(int64(i+2), got.Version)
		s.Equal(int64(i+1), got.PreviousVersion)
	}

	chain, err := s.service.ListVersions(s.ctx(), s.admin, entityID)
	s.Require().NoError(err)
	s.Require().Len(chain, 4)
	currentCount := 0
	for i, v := range chain {
		s.Equal(int64(i+1), v.Version)
		if v.IsCurrent() {
			currentCount++
		}
	}
	s.Equal(1, currentCount)
}

func (s *ServiceSuite) TestConcurrentModification() {
	entityID := s.createInvestor(nil)

	staleStore := &staleOnceStore{InMemory: s.store}
	svc := New(staleStore, policy.DefaultTable())

	_, err := svc.Update(s.ctx(), s.support, entityID,
		map[string]any{"phoneNumber": "+351922222222"}, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConcurrent))
}

// staleOnceStore makes the first commit lose the race.
type staleOnceStore struct {
	*store.InMemory
	commits int
}

func (s *staleOnceStore) CommitSuccessor(ctx context.Context, current, next *record.Version) error {
	s.commits++
	if s.commits == 1 {
		return sentinel.ErrStaleVersion
	}
	return s.InMemory.CommitSuccessor(ctx, current, next)
}

func (s *ServiceSuite) TestIntegrityViolation() {
	svc := New(integrityStore{}, policy.DefaultTable(),
		WithAuditPublisher(recordingPublisher{store: s.audits}),
	)

	_, err := svc.GetCurrent(s.ctx(), s.admin, domain.EntityID(uuid.New()))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariant))

	events, err := s.audits.ListRecent(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.EventIntegrityViolation, events[0].Action)
	s.Equal(audit.SeverityCritical, events[0].Severity)
}

type integrityStore struct {
	Store
}

func (integrityStore) GetCurrent(context.Context, domain.EntityID) (*record.Version, error) {
	return nil, sentinel.ErrIntegrity
}

func (s *ServiceSuite) TestReadAuthorization() {
	entityID := s.createInvestor(nil)

	s.Run("owner may read own record", func() {
		owner := domain.Actor{ID: domain.ActorID(uuid.UUID(entityID)), Role: domain.RoleInvestor}
		_, err := s.service.GetCurrent(s.ctx(), owner, entityID)
		s.NoError(err)
	})

	s.Run("another investor may not", func() {
		_, err := s.service.GetCurrent(s.ctx(), s.investor, entityID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("history is staff only", func() {
		owner := domain.Actor{ID: domain.ActorID(uuid.UUID(entityID)), Role: domain.RoleInvestor}
		_, err := s.service.ListVersions(s.ctx(), owner, entityID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestAuditTrail() {
	entityID := s.createInvestor(nil)

	_, err := s.service.Update(s.ctx(), s.compliance, entityID,
		map[string]any{"kycStatus": "APPROVED"}, "Documents verified against registry")
	s.Require().NoError(err)

	events, err := s.audits.ListByEntity(context.Background(), entityID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.EventRecordCreated, events[0].Action)
	s.Equal(audit.EventRecordUpdated, events[1].Action)
	s.Equal([]string{"kycStatus"}, events[1].Details["changed_fields"])
}
