package handler

import (
	"strings"

	"aidledger/internal/record"
	dErrors "aidledger/pkg/domain-errors"
)

// CreateRecordRequest is the HTTP request body for POST /records.
//
// The identity, location, and needs fields are sensitive: they exist in
// cleartext only inside this request and are encrypted before storage.
// The category, region, amount, and needs_tags fields are public routing
// metadata and stay in cleartext.
type CreateRecordRequest struct {
	Identity  string   `json:"identity"`
	Location  string   `json:"location"`
	Needs     string   `json:"needs"`
	Category  string   `json:"category"`
	Region    string   `json:"region"`
	Amount    int64    `json:"amount"`
	NeedsTags []string `json:"needs_tags"`
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRecordRequest) Validate() error {
	r.Identity = strings.TrimSpace(r.Identity)
	r.Needs = strings.TrimSpace(r.Needs)
	r.Category = strings.TrimSpace(r.Category)

	if r.Identity == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	if len(r.Identity) > 256 {
		return dErrors.New(dErrors.CodeInvalidInput, "identity must be at most 256 characters")
	}
	if r.Needs == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "needs is required")
	}
	if r.Category == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "category is required")
	}
	if r.Amount < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must not be negative")
	}
	return nil
}

// ToInput converts the validated request to the service input.
func (r *CreateRecordRequest) ToInput() record.CreateInput {
	return record.CreateInput{
		Identity: r.Identity,
		Location: r.Location,
		NeedsRaw: r.Needs,
		Category: r.Category,
		Region:   r.Region,
		Amount:   r.Amount,
		Needs:    r.NeedsTags,
	}
}
