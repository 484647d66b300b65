package policy

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"provena/internal/record"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
)

type FieldPolicySuite struct {
	suite.Suite
	table Table
}

func (s *FieldPolicySuite) SetupTest() {
	s.table = DefaultTable()
}

func TestFieldPolicySuite(t *testing.T) {
	suite.Run(t, new(FieldPolicySuite))
}

func (s *FieldPolicySuite) TestValuationGating() {
	s.Run("non-admin may not change property valuation", func() {
		err := s.table.Check(record.EntityProperty, []string{"currentValue"}, domain.RoleSupport)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Contains(err.Error(), "currentValue")
	})

	s.Run("admin may change property valuation", func() {
		s.NoError(s.table.Check(record.EntityProperty, []string{"currentValue"}, domain.RoleAdmin))
	})

	s.Run("compliance may not change property pricing", func() {
		err := s.table.Check(record.EntityProperty, []string{"pricePerShare"}, domain.RoleCompliance)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *FieldPolicySuite) TestWholePatchRejection() {
	// One disallowed field rejects the entire mutation, and the error names
	// every offending field.
	err := s.table.Check(record.EntityProperty,
		[]string{"description", "currentValue", "pricePerShare"}, domain.RoleSupport)
	s.Require().Error(err)
	s.Contains(err.Error(), "currentValue")
	s.Contains(err.Error(), "pricePerShare")
	s.NotContains(err.Error(), "description")
}

func (s *FieldPolicySuite) TestInvestorFieldRoles() {
	s.Run("compliance may change kyc status", func() {
		s.NoError(s.table.Check(record.EntityInvestor, []string{"kycStatus"}, domain.RoleCompliance))
	})

	s.Run("support may not change kyc status", func() {
		err := s.table.Check(record.EntityInvestor, []string{"kycStatus"}, domain.RoleSupport)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("compliance may not change account status", func() {
		err := s.table.Check(record.EntityInvestor, []string{"accountStatus"}, domain.RoleCompliance)
		s.Require().Error(err)
	})

	s.Run("unlisted fields are unrestricted", func() {
		s.NoError(s.table.Check(record.EntityInvestor, []string{"phoneNumber", "address"}, domain.RoleInvestor))
	})
}

func (s *FieldPolicySuite) TestCriticalChanged() {
	critical := s.table.CriticalChanged(record.EntityInvestor,
		[]string{"phoneNumber", "kycStatus", "accountStatus"})
	s.Equal([]string{"accountStatus", "kycStatus"}, critical)

	s.Empty(s.table.CriticalChanged(record.EntityInvestor, []string{"phoneNumber"}))
}
