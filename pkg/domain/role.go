package domain

import (
	"fmt"
	"strings"
)

// Role is the caller's platform role. Roles form a strict privilege order;
// field-level write policies name the minimum role allowed to change a field.
type Role string

const (
	RoleInvestor   Role = "investor"
	RoleSupport    Role = "support"
	RoleCompliance Role = "compliance"
	RoleAdmin      Role = "admin"
)

// roleRank orders roles by privilege. Higher ranks satisfy lower minimums.
var roleRank = map[Role]int{
	RoleInvestor:   1,
	RoleSupport:    2,
	RoleCompliance: 3,
	RoleAdmin:      4,
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Meets reports whether the role satisfies the given minimum role.
func (r Role) Meets(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// IsStaff reports whether the role belongs to platform staff rather than an
// end customer.
func (r Role) IsStaff() bool {
	return roleRank[r] >= roleRank[RoleSupport]
}

// Actor is the resolved identity of the current caller. It is established
// once at the transport boundary and threaded explicitly into every core
// operation; services never re-derive the caller from ambient state.
type Actor struct {
	ID    ActorID
	Role  Role
	Email string
}

// Identity returns the human-readable identity recorded in audit trails and
// synthesized change reasons.
func (a Actor) Identity() string {
	if a.Email != "" {
		return a.Email
	}
	return a.ID.String()
}
