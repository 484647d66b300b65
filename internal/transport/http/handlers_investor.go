package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"provena/pkg/platform/httputil"
	"provena/pkg/requestcontext"
)

const accessTokenTTL = time.Hour

type InvestorHandler struct {
	investors InvestorService
	tokens    TokenIssuer
	logger    *slog.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *InvestorHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[credentialsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	version, err := h.investors.Register(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVersionResponse(version))
}

func (h *InvestorHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[credentialsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	actor, err := h.investors.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(actor, accessTokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign access token", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(accessTokenTTL.Seconds()),
	})
}
