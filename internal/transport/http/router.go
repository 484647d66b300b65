// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services and encode; authorization and business rules live below.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"provena/internal/platform/middleware"
	"provena/internal/record"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Logger *slog.Logger

	Records   RecordService
	Reviews   ReviewService
	Bulk      BulkService
	Roles     RoleService
	Investors InvestorService
	Audit     AuditReader
	Tokens    TokenIssuer

	// Auth is the authentication middleware. Tests inject a stub that
	// stamps a fixed actor.
	Auth func(http.Handler) http.Handler
}

// NewRouter wires all endpoints.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestContext)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	investors := &InvestorHandler{investors: deps.Investors, tokens: deps.Tokens, logger: deps.Logger}
	r.Post("/register", investors.handleRegister)
	r.Post("/login", investors.handleLogin)

	records := &RecordHandler{records: deps.Records, logger: deps.Logger}
	reviews := &ReviewHandler{reviews: deps.Reviews, logger: deps.Logger}
	bulk := &BulkHandler{bulk: deps.Bulk, logger: deps.Logger}
	roles := &RoleHandler{roles: deps.Roles, logger: deps.Logger}
	auditH := &AuditHandler{reader: deps.Audit, logger: deps.Logger}

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth)

		r.Route("/records/{entityType}", func(r chi.Router) {
			mountRecordRoutes(r, records)
		})
		r.Route("/investors", func(r chi.Router) {
			r.Use(withEntityType(record.EntityInvestor))
			mountRecordRoutes(r, records)
		})
		r.Route("/properties", func(r chi.Router) {
			r.Use(withEntityType(record.EntityProperty))
			mountRecordRoutes(r, records)
		})

		r.Route("/kyc", func(r chi.Router) {
			r.Get("/queue", reviews.handleQueue)
			r.Post("/{entityID}/claim", reviews.handleClaim)
			r.Post("/{entityID}/approve", reviews.handleApprove)
			r.Post("/{entityID}/reject", reviews.handleReject)
			r.Post("/{entityID}/request-info", reviews.handleRequestInfo)
			r.Post("/{entityID}/documents", reviews.handleSubmitDocuments)
		})

		r.Route("/bulk", func(r chi.Router) {
			r.Post("/kyc/approve", bulk.handleApproveKYC)
			r.Post("/kyc/reject", bulk.handleRejectKYC)
			r.Post("/suspend", bulk.handleSuspend)
			r.Post("/notify", bulk.handleNotify)
		})

		r.Route("/roles/{userID}", func(r chi.Router) {
			r.Get("/", roles.handleList)
			r.Post("/grant", roles.handleGrant)
			r.Post("/remove", roles.handleRemove)
		})

		r.Get("/audit/{entityID}", auditH.handleListByEntity)
	})

	return r
}

func mountRecordRoutes(r chi.Router, records *RecordHandler) {
	r.Post("/", records.handleCreate)
	r.Route("/{entityID}", func(r chi.Router) {
		r.Get("/", records.handleGet)
		r.Patch("/", records.handleUpdate)
		r.Get("/versions", records.handleListVersions)
		r.Get("/versions/{version}", records.handleGetVersion)
	})
}

// withEntityType pins the entity type route param so entity-specific paths
// share the generic record handlers.
func withEntityType(entityType record.EntityType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			chi.RouteContext(r.Context()).URLParams.Add("entityType", string(entityType))
			next.ServeHTTP(w, r)
		})
	}
}
