// Package policy holds the typed write-policy tables for versioned records:
// which role may change which attribute, and which attributes demand an
// explicit caller-supplied justification. The tables are built once at
// startup; checks are pure set-membership tests.
package policy

import (
	"sort"
	"strings"

	"provena/internal/record"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
)

// FieldRule constrains writes to one attribute of one entity type.
type FieldRule struct {
	// MinRole is the minimum role allowed to change the attribute.
	MinRole domain.Role

	// Critical marks attributes whose change requires an explicit,
	// length-validated justification regardless of role.
	Critical bool
}

// Table maps entity type -> attribute name -> rule. Attributes absent from
// the table are unrestricted: any authenticated caller may change them,
// subject to ownership checks performed upstream.
type Table map[record.EntityType]map[string]FieldRule

// DefaultTable returns the production write-policy table.
func DefaultTable() Table {
	return Table{
		record.EntityInvestor: {
			"email":            {MinRole: domain.RoleAdmin},
			"kycStatus":        {MinRole: domain.RoleCompliance, Critical: true},
			"amlCheckStatus":   {MinRole: domain.RoleCompliance, Critical: true},
			"pepCheckStatus":   {MinRole: domain.RoleCompliance, Critical: true},
			"accountStatus":    {MinRole: domain.RoleAdmin, Critical: true},
			"accountTier":      {MinRole: domain.RoleAdmin},
			"investorCategory": {MinRole: domain.RoleCompliance, Critical: true},
			"adminNotes":       {MinRole: domain.RoleCompliance},
		},
		record.EntityProperty: {
			"status":              {MinRole: domain.RoleAdmin, Critical: true},
			"listingStatus":       {MinRole: domain.RoleAdmin, Critical: true},
			"currentValue":        {MinRole: domain.RoleAdmin, Critical: true},
			"pricePerShare":       {MinRole: domain.RoleAdmin, Critical: true},
			"totalShares":         {MinRole: domain.RoleAdmin, Critical: true},
			"purchasePrice":       {MinRole: domain.RoleAdmin, Critical: true},
			"targetFundingAmount": {MinRole: domain.RoleAdmin, Critical: true},
		},
		record.EntityInvestment: {
			"status": {MinRole: domain.RoleAdmin, Critical: true},
			"shares": {MinRole: domain.RoleAdmin, Critical: true},
			"amount": {MinRole: domain.RoleAdmin, Critical: true},
		},
		record.EntityTransaction: {
			"status": {MinRole: domain.RoleAdmin, Critical: true},
			"amount": {MinRole: domain.RoleAdmin, Critical: true},
		},
	}
}

// Check accepts or rejects a whole mutation for the caller's role. A single
// disallowed field rejects the entire patch; no partial subset is ever
// applied.
func (t Table) Check(entityType record.EntityType, changedFields []string, role domain.Role) error {
	var offending []string
	rules := t[entityType]
	for _, field := range changedFields {
		rule, restricted := rules[field]
		if !restricted {
			continue
		}
		if !role.Meets(rule.MinRole) {
			offending = append(offending, field)
		}
	}
	if len(offending) == 0 {
		return nil
	}
	sort.Strings(offending)
	return dErrors.Newf(dErrors.CodeForbidden,
		"role %s may not change restricted field(s): %s", role, strings.Join(offending, ", "))
}

// CriticalChanged returns the changed fields that belong to the entity type's
// critical set, sorted.
func (t Table) CriticalChanged(entityType record.EntityType, changedFields []string) []string {
	var critical []string
	rules := t[entityType]
	for _, field := range changedFields {
		if rule, ok := rules[field]; ok && rule.Critical {
			critical = append(critical, field)
		}
	}
	sort.Strings(critical)
	return critical
}
