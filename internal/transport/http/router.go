// Package httptransport assembles the HTTP surface: middleware chain, public
// endpoints, the bearer-gated agency API, and the oracle callback channel.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "aidledger/internal/authz/handler"
	recordhandler "aidledger/internal/record/handler"
	supplyhandler "aidledger/internal/supply/handler"
	verificationhandler "aidledger/internal/verification/handler"
	"aidledger/pkg/platform/httputil"
	"aidledger/pkg/platform/middleware/auth"
	"aidledger/pkg/platform/middleware/metadata"
	"aidledger/pkg/platform/middleware/requestid"
	"aidledger/pkg/platform/middleware/requesttime"
)

// HealthCheck reports backing-store health for /healthz.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Records       *recordhandler.Handler
	Packages      *supplyhandler.Handler
	Verifications *verificationhandler.Handler
	Auth          *authhandler.Handler
	Validator     auth.TokenValidator
	Logger        *slog.Logger
	Health        HealthCheck
}

// NewRouter wires the full endpoint tree.
//
// Three trust zones share the mux: public endpoints (health, metrics, token
// exchange), bearer-gated agency endpoints, and the oracle callback endpoints
// which are authenticated by proof rather than token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Auth.Register(r)
	deps.Verifications.RegisterCallbacks(r)

	r.Group(func(g chi.Router) {
		g.Use(auth.RequireAgency(deps.Validator, deps.Logger))
		deps.Records.Register(g)
		deps.Packages.Register(g)
		deps.Verifications.Register(g)
	})

	return r
}

func healthHandler(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
