package handler

import (
	"time"

	"aidledger/internal/verification"
)

// RequestedResponse acknowledges a submitted verification or reveal request.
// The oracle request ID lets operators correlate the eventual callback.
type RequestedResponse struct {
	OracleRequestID string `json:"oracle_request_id"`
}

// VerificationResponse is the HTTP response for GET /verifications/{id}.
// Scores appear only once the result has been revealed.
type VerificationResponse struct {
	ID          string    `json:"id"`
	RecordID    string    `json:"record_id"`
	PackageID   string    `json:"package_id"`
	VerifiedAt  time.Time `json:"verified_at"`
	IsRevealed  bool      `json:"is_revealed"`
	Eligibility *int      `json:"eligibility,omitempty"`
	Priority    *int      `json:"priority,omitempty"`
}

// FromVerification converts a verification and its result to the HTTP view.
func FromVerification(v *verification.Verification, result *verification.Result) *VerificationResponse {
	resp := &VerificationResponse{
		ID:         v.ID.String(),
		RecordID:   v.RecordID.String(),
		PackageID:  v.PackageID.String(),
		VerifiedAt: v.VerifiedAt,
		IsRevealed: result.Revealed,
	}
	if result.Revealed {
		eligibility, priority := result.Eligibility, result.Priority
		resp.Eligibility = &eligibility
		resp.Priority = &priority
	}
	return resp
}

// ListResponse is the HTTP response for GET /verifications.
type ListResponse struct {
	IDs []string `json:"ids"`
}

// CallbackAcceptedResponse acknowledges an accepted oracle callback.
type CallbackAcceptedResponse struct {
	VerificationID string `json:"verification_id,omitempty"`
}
