// Package roles manages staff role assignments with two fail-closed
// guardrails: an admin may not remove their own admin role, and the last
// admin can never be removed. Both checks run before any store write.
package roles

import (
	"context"
	"log/slog"

	"provena/internal/audit"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/requestcontext"
)

// Directory is the role assignment store.
type Directory interface {
	// RolesOf returns the roles held by one user.
	RolesOf(ctx context.Context, userID domain.ActorID) ([]domain.Role, error)

	// HoldersOf returns the users holding a role.
	HoldersOf(ctx context.Context, role domain.Role) ([]domain.ActorID, error)

	// Grant adds a role to a user. Granting a held role is a no-op.
	Grant(ctx context.Context, userID domain.ActorID, role domain.Role) error

	// Revoke removes a role from a user.
	Revoke(ctx context.Context, userID domain.ActorID, role domain.Role) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	directory Directory
	logger    *slog.Logger
	auditor   AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func New(directory Directory, opts ...Option) *Service {
	s := &Service{directory: directory, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RemoveRole revokes a role from a user. Admin only.
func (s *Service) RemoveRole(ctx context.Context, actor domain.Actor, userID domain.ActorID, role domain.Role) error {
	if !actor.Role.Meets(domain.RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "role management requires the admin role")
	}

	// Guardrails run before any write so a failed check cannot leave the
	// directory half-changed.
	if role == domain.RoleAdmin {
		if actor.ID == userID {
			return dErrors.New(dErrors.CodeForbidden,
				"admins may not remove their own admin role")
		}
		holders, err := s.directory.HoldersOf(ctx, domain.RoleAdmin)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admin holders")
		}
		if isOnlyHolder(holders, userID) {
			return dErrors.New(dErrors.CodeForbidden,
				"cannot remove the last admin")
		}
	}

	held, err := s.directory.RolesOf(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user roles")
	}
	if !holdsRole(held, role) {
		return dErrors.Newf(dErrors.CodeNotFound, "user does not hold the %s role", role)
	}

	if err := s.directory.Revoke(ctx, userID, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke role")
	}

	s.logger.InfoContext(ctx, "role removed",
		"user_id", userID,
		"role", role,
		"removed_by", actor.ID,
	)
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Action:      audit.EventRoleRemoved,
			PerformedBy: actor.ID,
			EntityType:  "USER",
			EntityID:    domain.EntityID(userID),
			RequestID:   requestcontext.RequestID(ctx),
			Details:     map[string]any{"role": string(role)},
		})
	}
	return nil
}

// GrantRole assigns a role to a user. Admin only.
func (s *Service) GrantRole(ctx context.Context, actor domain.Actor, userID domain.ActorID, role domain.Role) error {
	if !actor.Role.Meets(domain.RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "role management requires the admin role")
	}
	if err := s.directory.Grant(ctx, userID, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant role")
	}
	return nil
}

// RolesOf lists a user's roles. Staff only.
func (s *Service) RolesOf(ctx context.Context, actor domain.Actor, userID domain.ActorID) ([]domain.Role, error) {
	if !actor.Role.IsStaff() {
		return nil, dErrors.New(dErrors.CodeForbidden, "role listing is restricted to staff")
	}
	roles, err := s.directory.RolesOf(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user roles")
	}
	return roles, nil
}

func isOnlyHolder(holders []domain.ActorID, userID domain.ActorID) bool {
	for _, h := range holders {
		if h != userID {
			return false
		}
	}
	return len(holders) > 0
}

func holdsRole(held []domain.Role, role domain.Role) bool {
	for _, r := range held {
		if r == role {
			return true
		}
	}
	return false
}
