// Package investor handles investor onboarding. Registration creates the
// baseline record version with a pending verification status and places the
// case in the review queue.
package investor

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"provena/internal/kyc"
	kycqueue "provena/internal/kyc/queue"
	"provena/internal/record"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/secrets"
)

// AccountPendingVerification is the account state between registration and
// KYC approval.
const AccountPendingVerification = "PENDING_VERIFICATION"

// Records is the record creation port.
type Records interface {
	Create(ctx context.Context, actor domain.Actor, entityType record.EntityType, entityID domain.EntityID, attributes map[string]any, reason string) (*record.Version, error)
}

// Credential is a stored login credential.
type Credential struct {
	ActorID      domain.ActorID
	Email        string
	PasswordHash string
}

// CredentialStore persists password hashes, separate from the versioned
// record so credential rotation never pollutes the audit chain.
type CredentialStore interface {
	Save(ctx context.Context, credential Credential) error
	ByEmail(ctx context.Context, email string) (Credential, error)
}

type Service struct {
	records     Records
	credentials CredentialStore
	queue       kycqueue.Queue
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithQueue(q kycqueue.Queue) Option {
	return func(s *Service) { s.queue = q }
}

func New(records Records, credentials CredentialStore, opts ...Option) *Service {
	s := &Service{records: records, credentials: credentials, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// registrar is the system principal that writes baseline records during
// self-service registration, where no authenticated actor exists yet.
var registrar = domain.Actor{
	ID:    domain.ActorID(uuid.MustParse("00000000-0000-0000-0000-000000000001")),
	Role:  domain.RoleAdmin,
	Email: "registration@provena.internal",
}

// Register creates a new investor account. The investor record starts at
// version 1 with kycStatus PENDING.
func (s *Service) Register(ctx context.Context, emailAddr, password string) (*record.Version, error) {
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}

	passwordHash, err := secrets.Hash(password)
	if err != nil {
		return nil, err
	}

	entityID := domain.EntityID(uuid.New())
	version, err := s.records.Create(ctx, registrar, record.EntityInvestor, entityID, map[string]any{
		"email":               emailAddr,
		kyc.AttrKYCStatus:     string(kyc.StatusPending),
		kyc.AttrAccountStatus: AccountPendingVerification,
	}, "Investor account registered with email "+emailAddr)
	if err != nil {
		return nil, err
	}

	credential := Credential{
		ActorID:      domain.ActorID(entityID),
		Email:        emailAddr,
		PasswordHash: passwordHash,
	}
	if err := s.credentials.Save(ctx, credential); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credentials")
	}

	if s.queue != nil {
		if err := s.queue.Put(ctx, entityID, kyc.StatusPending, version.UpdatedAt); err != nil {
			s.logger.WarnContext(ctx, "failed to enqueue new registration for review",
				"entity_id", entityID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "investor registered", "entity_id", entityID)
	return version, nil
}

// Authenticate checks an email login attempt and returns the investor actor
// on success.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (domain.Actor, error) {
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	credential, err := s.credentials.ByEmail(ctx, emailAddr)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := secrets.Verify(password, credential.PasswordHash); err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{
		ID:    credential.ActorID,
		Role:  domain.RoleInvestor,
		Email: credential.Email,
	}, nil
}
