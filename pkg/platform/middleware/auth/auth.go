// Package auth provides bearer-token middleware for agency-facing endpoints.
// Token validation itself lives behind an interface so the middleware stays
// free of signing-key concerns.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "aidledger/pkg/domain"
	"aidledger/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the agency it was
// issued to.
type TokenValidator interface {
	ValidateToken(token string) (id.AgencyID, error)
}

// RequireAgency rejects requests without a valid agency bearer token and puts
// the agency ID into the request context for the policy gate.
func RequireAgency(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing bearer token",
					"request_id", requestID,
				)
				writeUnauthorized(w)
				return
			}

			agency, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestID,
					"error", err,
				)
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAgency(ctx, agency)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
