// Package handler wires the aid package endpoints to the supply service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"aidledger/internal/supply"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/platform/httputil"
	"aidledger/pkg/requestcontext"
)

// Service defines the interface for package operations.
type Service interface {
	Create(ctx context.Context, input supply.CreateInput) (*supply.AidPackage, error)
	Get(ctx context.Context, packageID id.PackageID) (*supply.AidPackage, error)
	ListIDs(ctx context.Context) ([]id.PackageID, error)
}

// Handler wires package endpoints to the supply service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a package handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts package endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/packages", h.HandleCreate)
	r.Get("/packages", h.HandleList)
	r.Get("/packages/{packageID}", h.HandleGet)
}

// CreatePackageRequest is the HTTP request body for POST /packages. Both
// fields are sensitive and are encrypted before storage.
type CreatePackageRequest struct {
	Resources  string `json:"resources"`
	Quantities string `json:"quantities"`
}

// Validate validates and normalizes the request.
func (r *CreatePackageRequest) Validate() error {
	r.Resources = strings.TrimSpace(r.Resources)
	if r.Resources == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "resources is required")
	}
	return nil
}

// PackageResponse is the public view of a package: ciphertext handle IDs only.
type PackageResponse struct {
	ID           string    `json:"id"`
	ResourcesRef string    `json:"resources_ref"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromPackage converts a domain package to its HTTP response.
func FromPackage(pkg *supply.AidPackage) *PackageResponse {
	return &PackageResponse{
		ID:           pkg.ID.String(),
		ResourcesRef: pkg.EncryptedResources.ID.String(),
		CreatedAt:    pkg.CreatedAt,
	}
}

// ListResponse is the HTTP response for GET /packages.
type ListResponse struct {
	IDs []string `json:"ids"`
}

// HandleCreate handles POST /packages.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreatePackageRequest](w, r, h.logger)
	if !ok {
		return
	}

	pkg, err := h.service.Create(ctx, supply.CreateInput{
		Resources:  req.Resources,
		Quantities: req.Quantities,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "package creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "package created",
		"request_id", requestID,
		"package_id", pkg.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromPackage(pkg))
}

// HandleList handles GET /packages.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListIDs(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]string, len(ids))
	for i, pid := range ids {
		out[i] = pid.String()
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{IDs: out})
}

// HandleGet handles GET /packages/{packageID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	packageID, err := id.ParsePackageID(chi.URLParam(r, "packageID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	pkg, err := h.service.Get(r.Context(), packageID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPackage(pkg))
}
