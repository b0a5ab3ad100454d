// Package handler wires the record ledger endpoints to the record service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aidledger/internal/record"
	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/httputil"
	"aidledger/pkg/requestcontext"
)

// Service defines the interface for record operations.
type Service interface {
	Create(ctx context.Context, input record.CreateInput) (*record.AidRecord, error)
	Get(ctx context.Context, recordID id.RecordID) (*record.AidRecord, error)
	ListIDs(ctx context.Context) ([]id.RecordID, error)
	Approve(ctx context.Context, recordID id.RecordID) error
	Distribute(ctx context.Context, recordID id.RecordID) error
	Reject(ctx context.Context, recordID id.RecordID) error
}

// Handler wires record endpoints to the record service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a record handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts record endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/records", h.HandleCreate)
	r.Get("/records", h.HandleList)
	r.Get("/records/{recordID}", h.HandleGet)
	r.Post("/records/{recordID}/approve", h.transitionHandler("approve", h.service.Approve, record.StatusApproved))
	r.Post("/records/{recordID}/distribute", h.transitionHandler("distribute", h.service.Distribute, record.StatusDistributed))
	r.Post("/records/{recordID}/reject", h.transitionHandler("reject", h.service.Reject, record.StatusRejected))
}

// HandleCreate handles POST /records.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateRecordRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, err := h.service.Create(ctx, req.ToInput())
	if err != nil {
		h.logger.ErrorContext(ctx, "record creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "record created",
		"request_id", requestID,
		"record_id", rec.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

// HandleList handles GET /records.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := h.service.ListIDs(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]string, len(ids))
	for i, rid := range ids {
		out[i] = rid.String()
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{IDs: out})
}

// HandleGet handles GET /records/{recordID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Get(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// transitionHandler builds the shared handler shape for the three status
// transition endpoints.
func (h *Handler) transitionHandler(name string, op func(context.Context, id.RecordID) error, target record.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		if err := op(ctx, recordID); err != nil {
			h.logger.WarnContext(ctx, "record transition refused",
				"request_id", requestID,
				"record_id", recordID.String(),
				"transition", name,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, StatusResponse{
			ID:     recordID.String(),
			Status: string(target),
		})
	}
}
