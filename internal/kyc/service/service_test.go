package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"provena/internal/kyc"
	"provena/internal/kyc/queue"
	"provena/internal/notify"
	notifymocks "provena/internal/notify/mocks"
	"provena/internal/record"
	"provena/internal/record/policy"
	recordservice "provena/internal/record/service"
	"provena/internal/record/store"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/requestcontext"
)

type KYCServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	records    *recordservice.Service
	store      *store.InMemory
	queue      *queue.Memory
	dispatcher *notifymocks.MockDispatcher
	emailer    *notifymocks.MockEmailer
	groups     *notifymocks.MockAccessGroups
	service    *Service

	reviewer domain.Actor
	admin    domain.Actor
	now      time.Time
}

func (s *KYCServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewInMemory()
	s.queue = queue.NewMemory()
	s.records = recordservice.New(s.store, policy.DefaultTable())
	s.dispatcher = notifymocks.NewMockDispatcher(s.ctrl)
	s.emailer = notifymocks.NewMockEmailer(s.ctrl)
	s.groups = notifymocks.NewMockAccessGroups(s.ctrl)
	s.service = New(s.records, s.queue,
		WithNotifications(s.dispatcher, s.emailer, s.groups),
	)

	s.reviewer = domain.Actor{ID: domain.ActorID(uuid.New()), Role: domain.RoleCompliance, Email: "reviewer@provena.test"}
	s.admin = domain.Actor{ID: domain.ActorID(uuid.New()), Role: domain.RoleAdmin, Email: "admin@provena.test"}
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func TestKYCServiceSuite(t *testing.T) {
	suite.Run(t, new(KYCServiceSuite))
}

func (s *KYCServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *KYCServiceSuite) newCase(status kyc.Status, withDocs bool) domain.EntityID {
	entityID := domain.EntityID(uuid.New())
	attrs := map[string]any{
		"email":           "casey@example.com",
		kyc.AttrKYCStatus: string(status),
	}
	if withDocs {
		attrs[kyc.AttrIdentityDocument] = "doc-identity-1"
		attrs[kyc.AttrProofOfAddress] = "doc-address-1"
	}
	_, err := s.records.Create(s.ctx(), s.admin, record.EntityInvestor, entityID, attrs, "")
	s.Require().NoError(err)
	s.Require().NoError(s.queue.Put(context.Background(), entityID, status, s.now))
	return entityID
}

func (s *KYCServiceSuite) currentOf(entityID domain.EntityID) *record.Version {
	current, err := s.records.GetCurrent(s.ctx(), s.admin, entityID)
	s.Require().NoError(err)
	return current
}

func (s *KYCServiceSuite) TestApproveWithoutDocuments() {
	entityID := s.newCase(kyc.StatusPending, false)

	_, err := s.service.Approve(s.ctx(), s.reviewer, entityID, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), kyc.AttrIdentityDocument)

	s.Equal(record.BaselineVersion, s.currentOf(entityID).Version,
		"a failed approval must not create a version")
}

func (s *KYCServiceSuite) TestApprove() {
	entityID := s.newCase(kyc.StatusPending, true)

	s.groups.EXPECT().
		Elevate(gomock.Any(), domain.ActorID(uuid.UUID(entityID)), notify.VerifiedInvestorsGroup).
		Return(nil)
	s.dispatcher.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)
	s.emailer.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e notify.Email) error {
			s.Equal("casey@example.com", e.To)
			s.Contains(e.Body, "Casey")
			return nil
		})

	got, err := s.service.Approve(s.ctx(), s.reviewer, entityID, "Documents match registry extract")
	s.Require().NoError(err)
	s.Equal(int64(2), got.Version)
	s.Equal(string(kyc.StatusApproved), got.Attributes[kyc.AttrKYCStatus])
	s.Equal(kyc.AccountActive, got.Attributes[kyc.AttrAccountStatus])
	s.Equal(kyc.VerificationLevelFull, got.Attributes[kyc.AttrVerificationLevel])
	s.Equal(s.reviewer.ID, got.UpdatedBy)
	s.Contains(got.ChangeReason, "KYC approved by reviewer@provena.test")
	s.Contains(got.ChangeReason, "Documents match registry extract")

	expiry, err := time.Parse(time.RFC3339, got.Attributes[kyc.AttrKYCExpiryDate].(string))
	s.Require().NoError(err)
	s.Equal(s.now.Add(kyc.ApprovalValidity), expiry)

	snapshot, err := s.queue.Snapshot(context.Background())
	s.Require().NoError(err)
	s.Zero(snapshot.TotalCount, "approved cases leave the queue")
}

func (s *KYCServiceSuite) TestApproveEffectFailureDoesNotRollBack() {
	entityID := s.newCase(kyc.StatusPending, true)

	s.groups.EXPECT().Elevate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("idp unavailable"))
	s.dispatcher.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)
	s.emailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

	got, err := s.service.Approve(s.ctx(), s.reviewer, entityID, "")
	s.Require().NoError(err)
	s.Equal(string(kyc.StatusApproved), got.Attributes[kyc.AttrKYCStatus])
}

func (s *KYCServiceSuite) TestRejectReasonTooShort() {
	entityID := s.newCase(kyc.StatusPending, true)

	_, err := s.service.Reject(s.ctx(), s.reviewer, entityID, "bad docs")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReason))

	// Six characters even though the UTF-8 encoding is over ten bytes.
	_, err = s.service.Reject(s.ctx(), s.reviewer, entityID, "плохие")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReason))

	s.Equal(record.BaselineVersion, s.currentOf(entityID).Version)
}

func (s *KYCServiceSuite) TestReject() {
	entityID := s.newCase(kyc.StatusInProgress, true)
	reason := "Identity document appears altered"

	s.dispatcher.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n notify.Notification) error {
			s.Contains(n.Message, reason)
			return nil
		})

	got, err := s.service.Reject(s.ctx(), s.reviewer, entityID, reason)
	s.Require().NoError(err)
	s.Equal(string(kyc.StatusRejected), got.Attributes[kyc.AttrKYCStatus])
	s.Equal(reason, got.Attributes[kyc.AttrRejectionReason])
	s.Equal(reason, got.ChangeReason)

	snapshot, err := s.queue.Snapshot(context.Background())
	s.Require().NoError(err)
	s.Zero(snapshot.TotalCount)
}

func (s *KYCServiceSuite) TestRequestMoreInfo() {
	entityID := s.newCase(kyc.StatusInProgress, true)

	s.dispatcher.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	got, err := s.service.RequestMoreInfo(s.ctx(), s.reviewer, entityID,
		"Please provide a recent utility bill")
	s.Require().NoError(err)
	s.Equal(string(kyc.StatusMoreInfoRequired), got.Attributes[kyc.AttrKYCStatus])

	snapshot, err := s.queue.Snapshot(context.Background())
	s.Require().NoError(err)
	s.Len(snapshot.RequiresMoreInfo, 1)
	s.Empty(snapshot.InProgress)
}

func (s *KYCServiceSuite) TestResubmission() {
	entityID := s.newCase(kyc.StatusMoreInfoRequired, true)
	owner := domain.Actor{ID: domain.ActorID(uuid.UUID(entityID)), Role: domain.RoleInvestor, Email: "casey@example.com"}

	got, err := s.service.SubmitDocuments(s.ctx(), owner, entityID, "doc-identity-2", "")
	s.Require().NoError(err)
	s.Equal(string(kyc.StatusPending), got.Attributes[kyc.AttrKYCStatus])
	s.Equal("doc-identity-2", got.Attributes[kyc.AttrIdentityDocument])

	snapshot, err := s.queue.Snapshot(context.Background())
	s.Require().NoError(err)
	s.Len(snapshot.Pending, 1)
	s.Empty(snapshot.RequiresMoreInfo)
}

func (s *KYCServiceSuite) TestSubmitDocumentsForAnotherInvestor() {
	entityID := s.newCase(kyc.StatusMoreInfoRequired, true)
	stranger := domain.Actor{ID: domain.ActorID(uuid.New()), Role: domain.RoleInvestor}

	_, err := s.service.SubmitDocuments(s.ctx(), stranger, entityID, "doc-x", "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *KYCServiceSuite) TestClaim() {
	entityID := s.newCase(kyc.StatusPending, true)

	got, err := s.service.Claim(s.ctx(), s.reviewer, entityID)
	s.Require().NoError(err)
	s.Equal(string(kyc.StatusInProgress), got.Attributes[kyc.AttrKYCStatus])

	snapshot, err := s.queue.Snapshot(context.Background())
	s.Require().NoError(err)
	s.Len(snapshot.InProgress, 1)
	s.Empty(snapshot.Pending)
}

func (s *KYCServiceSuite) TestIllegalTransitions() {
	s.Run("approving an approved case", func() {
		entityID := s.newCase(kyc.StatusApproved, true)
		_, err := s.service.Approve(s.ctx(), s.reviewer, entityID, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("claiming a rejected case", func() {
		entityID := s.newCase(kyc.StatusRejected, true)
		_, err := s.service.Claim(s.ctx(), s.reviewer, entityID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejecting a case waiting on the investor", func() {
		entityID := s.newCase(kyc.StatusMoreInfoRequired, true)
		_, err := s.service.Reject(s.ctx(), s.reviewer, entityID,
			"Identity document appears altered")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *KYCServiceSuite) TestReviewRequiresCompliance() {
	entityID := s.newCase(kyc.StatusPending, true)
	support := domain.Actor{ID: domain.ActorID(uuid.New()), Role: domain.RoleSupport}

	_, err := s.service.Approve(s.ctx(), support, entityID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Queue(s.ctx(), support)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *KYCServiceSuite) TestQueueOrdering() {
	first := s.newCase(kyc.StatusPending, true)
	second := s.newCase(kyc.StatusPending, true)
	s.Require().NoError(s.queue.Put(context.Background(), first, kyc.StatusPending, s.now.Add(-time.Hour)))

	snapshot, err := s.service.Queue(s.ctx(), s.reviewer)
	s.Require().NoError(err)
	s.Require().Len(snapshot.Pending, 2)
	s.Equal(first, snapshot.Pending[0].EntityID, "oldest case comes first")
	s.Equal(second, snapshot.Pending[1].EntityID)
	s.Equal(2, snapshot.TotalCount)
}
