package handler

import (
	"time"

	"aidledger/internal/record"
)

// RecordResponse is the public view of an aid record. Sensitive fields never
// appear here: the response carries only routing metadata and ciphertext
// handle IDs.
type RecordResponse struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Region      string    `json:"region"`
	Amount      int64     `json:"amount"`
	NeedsTags   []string  `json:"needs_tags"`
	Status      string    `json:"status"`
	IdentityRef string    `json:"identity_ref"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromRecord converts a domain record to its HTTP response.
func FromRecord(rec *record.AidRecord) *RecordResponse {
	return &RecordResponse{
		ID:          rec.ID.String(),
		Category:    rec.Category,
		Region:      rec.Location,
		Amount:      rec.Amount,
		NeedsTags:   rec.Needs,
		Status:      string(rec.Status),
		IdentityRef: rec.EncryptedIdentity.ID.String(),
		CreatedAt:   rec.CreatedAt,
	}
}

// ListResponse is the HTTP response for GET /records.
type ListResponse struct {
	IDs []string `json:"ids"`
}

// StatusResponse acknowledges a status transition.
type StatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
