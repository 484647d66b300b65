// Package notify defines the side-effect ports of the review workflows:
// in-app notifications, email, and access-group membership. Implementations
// are adapters; review logic treats all of them as best effort.
package notify

//go:generate mockgen -source=notify.go -destination=mocks/mocks.go -package=mocks Dispatcher,Emailer,AccessGroups

import (
	"context"

	"provena/pkg/domain"
)

// Notification is an in-app message shown to an investor.
type Notification struct {
	RecipientID domain.ActorID
	Title       string
	Message     string
	Link        string
}

// Dispatcher delivers in-app notifications.
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// Email is an outbound message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Emailer delivers email.
type Emailer interface {
	Send(ctx context.Context, e Email) error
}

// AccessGroups manages platform group membership. Approval elevates the
// investor into the verified investors group.
type AccessGroups interface {
	Elevate(ctx context.Context, actorID domain.ActorID, group string) error
	Demote(ctx context.Context, actorID domain.ActorID, group string) error
}

// VerifiedInvestorsGroup is the group granting access to live offerings.
const VerifiedInvestorsGroup = "verified-investors"
