package httptransport

import (
	"context"
	"net/http"
	"time"

	"provena/internal/audit"
	"provena/internal/bulk"
	"provena/internal/kyc"
	"provena/internal/record"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/platform/httputil"
	"provena/pkg/requestcontext"
)

// Service ports consumed by the handlers. Declared here so handler tests can
// substitute stubs without touching the services. The acting principal is
// resolved once per request and passed down explicitly; services never reach
// back into the context for it.
type (
	RecordService interface {
		Create(ctx context.Context, actor domain.Actor, entityType record.EntityType, entityID domain.EntityID, attributes map[string]any, reason string) (*record.Version, error)
		Update(ctx context.Context, actor domain.Actor, entityID domain.EntityID, patch map[string]any, reason string) (*record.Version, error)
		GetCurrent(ctx context.Context, actor domain.Actor, entityID domain.EntityID) (*record.Version, error)
		GetVersion(ctx context.Context, actor domain.Actor, entityID domain.EntityID, version int64) (*record.Version, error)
		ListVersions(ctx context.Context, actor domain.Actor, entityID domain.EntityID) ([]*record.Version, error)
	}

	ReviewService interface {
		Claim(ctx context.Context, actor domain.Actor, entityID domain.EntityID) (*record.Version, error)
		Approve(ctx context.Context, actor domain.Actor, entityID domain.EntityID, notes string) (*record.Version, error)
		Reject(ctx context.Context, actor domain.Actor, entityID domain.EntityID, reason string) (*record.Version, error)
		RequestMoreInfo(ctx context.Context, actor domain.Actor, entityID domain.EntityID, message string) (*record.Version, error)
		SubmitDocuments(ctx context.Context, actor domain.Actor, entityID domain.EntityID, identityDocID, proofOfAddressID string) (*record.Version, error)
		Queue(ctx context.Context, actor domain.Actor) (*kyc.QueueSnapshot, error)
	}

	BulkService interface {
		ApproveKYC(ctx context.Context, actor domain.Actor, ids []domain.EntityID, notes string) (*bulk.Result, error)
		RejectKYC(ctx context.Context, actor domain.Actor, ids []domain.EntityID, reason string) (*bulk.Result, error)
		Suspend(ctx context.Context, actor domain.Actor, ids []domain.EntityID, reason string) (*bulk.Result, error)
		Notify(ctx context.Context, actor domain.Actor, ids []domain.EntityID, title, message string) (*bulk.Result, error)
	}

	RoleService interface {
		GrantRole(ctx context.Context, actor domain.Actor, userID domain.ActorID, role domain.Role) error
		RemoveRole(ctx context.Context, actor domain.Actor, userID domain.ActorID, role domain.Role) error
		RolesOf(ctx context.Context, actor domain.Actor, userID domain.ActorID) ([]domain.Role, error)
	}

	InvestorService interface {
		Register(ctx context.Context, email, password string) (*record.Version, error)
		Authenticate(ctx context.Context, email, password string) (domain.Actor, error)
	}

	AuditReader interface {
		ListByEntity(ctx context.Context, entityID domain.EntityID) ([]audit.Event, error)
	}

	TokenIssuer interface {
		GenerateAccessToken(actor domain.Actor, expiresIn time.Duration) (string, error)
	}
)

// requireActor returns the principal stamped by the auth middleware, writing
// a 401 when it is absent.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := requestcontext.Actor(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor"))
		return domain.Actor{}, false
	}
	return actor, true
}

// versionResponse is the wire shape of one record version.
type versionResponse struct {
	EntityID        string         `json:"entityId"`
	EntityType      string         `json:"entityType"`
	Version         int64          `json:"version"`
	Tag             string         `json:"tag"`
	Attributes      map[string]any `json:"attributes"`
	ChangedFields   []string       `json:"changedFields,omitempty"`
	ChangeReason    string         `json:"changeReason,omitempty"`
	PreviousVersion int64          `json:"previousVersion,omitempty"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	UpdatedBy       string         `json:"updatedBy"`
}

func toVersionResponse(v *record.Version) versionResponse {
	return versionResponse{
		EntityID:        v.EntityID.String(),
		EntityType:      string(v.EntityType),
		Version:         v.Version,
		Tag:             string(v.Tag),
		Attributes:      v.Attributes,
		ChangedFields:   v.ChangedFields,
		ChangeReason:    v.ChangeReason,
		PreviousVersion: v.PreviousVersion,
		UpdatedAt:       v.UpdatedAt,
		UpdatedBy:       v.UpdatedBy.String(),
	}
}

func toVersionResponses(versions []*record.Version) []versionResponse {
	out := make([]versionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersionResponse(v))
	}
	return out
}

func parseEntityIDs(raw []string) ([]domain.EntityID, error) {
	ids := make([]domain.EntityID, 0, len(raw))
	for _, s := range raw {
		id, err := domain.ParseEntityID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
