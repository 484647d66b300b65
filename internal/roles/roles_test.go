package roles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
)

type RolesSuite struct {
	suite.Suite
	directory *MemoryDirectory
	service   *Service

	admin      domain.Actor
	otherAdmin domain.ActorID
	reviewer   domain.ActorID
}

func (s *RolesSuite) SetupTest() {
	s.directory = NewMemoryDirectory()
	s.service = New(s.directory)

	s.admin = domain.Actor{ID: domain.ActorID(uuid.New()), Role: domain.RoleAdmin, Email: "admin@provena.test"}
	s.otherAdmin = domain.ActorID(uuid.New())
	s.reviewer = domain.ActorID(uuid.New())

	ctx := context.Background()
	s.Require().NoError(s.directory.Grant(ctx, s.admin.ID, domain.RoleAdmin))
	s.Require().NoError(s.directory.Grant(ctx, s.otherAdmin, domain.RoleAdmin))
	s.Require().NoError(s.directory.Grant(ctx, s.reviewer, domain.RoleCompliance))
}

func TestRolesSuite(t *testing.T) {
	suite.Run(t, new(RolesSuite))
}

func (s *RolesSuite) TestRemoveRole() {
	err := s.service.RemoveRole(context.Background(), s.admin, s.reviewer, domain.RoleCompliance)
	s.Require().NoError(err)

	held, err := s.directory.RolesOf(context.Background(), s.reviewer)
	s.Require().NoError(err)
	s.Empty(held)
}

func (s *RolesSuite) TestSelfRemovalBlocked() {
	err := s.service.RemoveRole(context.Background(), s.admin, s.admin.ID, domain.RoleAdmin)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	held, err := s.directory.RolesOf(context.Background(), s.admin.ID)
	s.Require().NoError(err)
	s.Contains(held, domain.RoleAdmin)
}

func (s *RolesSuite) TestLastAdminProtected() {
	// Remove the other admin first; s.admin is now the last holder.
	s.Require().NoError(s.service.RemoveRole(context.Background(), s.admin, s.otherAdmin, domain.RoleAdmin))

	other := domain.Actor{ID: s.otherAdmin, Role: domain.RoleAdmin}
	err := s.service.RemoveRole(context.Background(), other, s.admin.ID, domain.RoleAdmin)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Contains(err.Error(), "last admin")
}

func (s *RolesSuite) TestRemoveRoleNotHeld() {
	err := s.service.RemoveRole(context.Background(), s.admin, s.reviewer, domain.RoleAdmin)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RolesSuite) TestNonAdminForbidden() {
	reviewer := domain.Actor{ID: s.reviewer, Role: domain.RoleCompliance}

	err := s.service.RemoveRole(context.Background(), reviewer, s.otherAdmin, domain.RoleAdmin)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
