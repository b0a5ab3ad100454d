// Package handler exposes the verification engine over HTTP. It serves two
// very different audiences from one package: authenticated agencies on the
// /verifications endpoints, and the untrusted oracle callback channel on the
// /oracle endpoints, where every failure collapses to one opaque rejection.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aidledger/internal/verification"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/platform/httputil"
	"aidledger/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for verification operations.
type Service interface {
	Request(ctx context.Context, recordID id.RecordID, packageID id.PackageID) (id.RequestID, error)
	HandleEligibilityCallback(ctx context.Context, requestID id.RequestID, cleartexts [][]byte, proof []byte) (id.VerificationID, error)
	RequestReveal(ctx context.Context, verificationID id.VerificationID) (id.RequestID, error)
	HandleRevealCallback(ctx context.Context, requestID id.RequestID, cleartexts [][]byte, proof []byte) error
	Get(ctx context.Context, verificationID id.VerificationID) (*verification.Verification, *verification.Result, error)
	ListIDs(ctx context.Context) ([]id.VerificationID, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the agency-facing verification endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications", h.HandleVerify)
	r.Get("/verifications", h.HandleList)
	r.Get("/verifications/{verificationID}", h.HandleGet)
	r.Post("/verifications/{verificationID}/reveal", h.HandleReveal)
}

// RegisterCallbacks mounts the oracle callback endpoints. These sit outside
// the agency auth group: the proof, not a bearer token, authenticates them.
func (h *Handler) RegisterCallbacks(r chi.Router) {
	r.Post("/oracle/verification", h.HandleEligibilityCallback)
	r.Post("/oracle/reveal", h.HandleRevealCallback)
}

// HandleVerify handles POST /verifications.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	oracleID, err := h.service.Request(ctx, req.ParsedRecordID(), req.ParsedPackageID())
	if err != nil {
		h.logger.ErrorContext(ctx, "verification request failed",
			"request_id", requestID,
			"record_id", req.RecordID,
			"package_id", req.PackageID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification submitted",
		"request_id", requestID,
		"oracle_request_id", oracleID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusAccepted, RequestedResponse{OracleRequestID: oracleID.String()})
}

// HandleList handles GET /verifications.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListIDs(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]string, len(ids))
	for i, vid := range ids {
		out[i] = vid.String()
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{IDs: out})
}

// HandleGet handles GET /verifications/{verificationID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	verificationID, err := id.ParseVerificationID(chi.URLParam(r, "verificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	v, result, err := h.service.Get(r.Context(), verificationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVerification(v, result))
}

// HandleReveal handles POST /verifications/{verificationID}/reveal.
func (h *Handler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	verificationID, err := id.ParseVerificationID(chi.URLParam(r, "verificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	oracleID, err := h.service.RequestReveal(ctx, verificationID)
	if err != nil {
		h.logger.WarnContext(ctx, "reveal request refused",
			"request_id", requestID,
			"verification_id", verificationID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, RequestedResponse{OracleRequestID: oracleID.String()})
}

// HandleEligibilityCallback handles POST /oracle/verification.
func (h *Handler) HandleEligibilityCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, requestID, ok := h.decodeCallback(w, r)
	if !ok {
		return
	}

	verificationID, err := h.service.HandleEligibilityCallback(ctx, requestID, req.Cleartexts, req.Proof)
	if err != nil {
		h.writeCallbackError(ctx, w, "eligibility", requestID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CallbackAcceptedResponse{VerificationID: verificationID.String()})
}

// HandleRevealCallback handles POST /oracle/reveal.
func (h *Handler) HandleRevealCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, requestID, ok := h.decodeCallback(w, r)
	if !ok {
		return
	}

	if err := h.service.HandleRevealCallback(ctx, requestID, req.Cleartexts, req.Proof); err != nil {
		h.writeCallbackError(ctx, w, "reveal", requestID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CallbackAcceptedResponse{})
}

// decodeCallback parses a callback body. Malformed bodies get the same
// constant rejection as rejected callbacks so the endpoint leaks nothing.
func (h *Handler) decodeCallback(w http.ResponseWriter, r *http.Request) (*CallbackRequest, id.RequestID, bool) {
	ctx := r.Context()

	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "callback decode failed", "error", err)
		httputil.WriteCallbackRejected(w)
		return nil, id.RequestID{}, false
	}
	requestID, err := req.ParseRequestID()
	if err != nil {
		h.logger.WarnContext(ctx, "callback carried invalid request id", "error", err)
		httputil.WriteCallbackRejected(w)
		return nil, id.RequestID{}, false
	}
	return &req, requestID, true
}

// writeCallbackError flattens protocol rejections to the constant shape and
// lets genuine server faults surface as such.
func (h *Handler) writeCallbackError(ctx context.Context, w http.ResponseWriter, kind string, requestID id.RequestID, err error) {
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeUnknownRequest, dErrors.CodeInvalidProof, dErrors.CodeMalformedCallback:
		httputil.WriteCallbackRejected(w)
	default:
		h.logger.ErrorContext(ctx, "callback processing failed",
			"kind", kind,
			"oracle_request_id", requestID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
	}
}
