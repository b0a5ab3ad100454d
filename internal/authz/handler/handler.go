// Package handler exposes agency token exchange.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidledger/internal/authz"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/platform/httputil"
	"aidledger/pkg/requestcontext"
)

// Handler exchanges agency API keys for bearer tokens.
type Handler struct {
	policy *authz.StaticPolicy
	tokens *authz.TokenService
	logger *slog.Logger
}

// New constructs the auth handler.
func New(policy *authz.StaticPolicy, tokens *authz.TokenService, logger *slog.Logger) *Handler {
	return &Handler{policy: policy, tokens: tokens, logger: logger}
}

// Register mounts the token endpoint. It stays outside the bearer-auth group.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/token", h.HandleToken)
}

// TokenRequest is the HTTP request body for POST /auth/token.
type TokenRequest struct {
	AgencyID string `json:"agency_id"`
	APIKey   string `json:"api_key"`

	parsedAgencyID id.AgencyID
}

// Validate validates and parses the request.
func (r *TokenRequest) Validate() error {
	agencyID, err := id.ParseAgencyID(r.AgencyID)
	if err != nil {
		// Credential failures are uniform: malformed and unknown IDs look alike.
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if r.APIKey == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	r.parsedAgencyID = agencyID
	return nil
}

// TokenResponse is the HTTP response for POST /auth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleToken handles POST /auth/token.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger)
	if !ok {
		return
	}

	agencyID, err := h.policy.VerifyKey(req.parsedAgencyID, req.APIKey)
	if err != nil {
		h.logger.WarnContext(ctx, "token exchange refused",
			"request_id", requestID,
			"agency_id", req.AgencyID,
			"client_ip", requestcontext.ClientIP(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	now := requestcontext.Now(ctx)
	token, err := h.tokens.Issue(agencyID, now)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "token issued",
		"request_id", requestID,
		"agency_id", agencyID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}
