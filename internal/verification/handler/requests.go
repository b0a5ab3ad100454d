package handler

import (
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
)

// VerifyRequest is the HTTP request body for POST /verifications.
type VerifyRequest struct {
	RecordID  string `json:"record_id"`
	PackageID string `json:"package_id"`

	parsedRecordID  id.RecordID
	parsedPackageID id.PackageID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *VerifyRequest) Validate() error {
	recordID, err := id.ParseRecordID(r.RecordID)
	if err != nil {
		return err
	}
	packageID, err := id.ParsePackageID(r.PackageID)
	if err != nil {
		return err
	}
	r.parsedRecordID = recordID
	r.parsedPackageID = packageID
	return nil
}

// ParsedRecordID returns the validated record ID.
func (r *VerifyRequest) ParsedRecordID() id.RecordID { return r.parsedRecordID }

// ParsedPackageID returns the validated package ID.
func (r *VerifyRequest) ParsedPackageID() id.PackageID { return r.parsedPackageID }

// CallbackRequest is the HTTP request body for the two oracle callback
// endpoints. Cleartexts and proof travel base64-encoded.
//
// It deliberately does not implement Validatable: callback-channel failures
// must collapse to the constant rejection shape, not the coded error envelope.
type CallbackRequest struct {
	RequestID  string   `json:"request_id"`
	Cleartexts [][]byte `json:"cleartexts"`
	Proof      []byte   `json:"proof"`
}

// ParseRequestID validates the correlation request ID.
func (r *CallbackRequest) ParseRequestID() (id.RequestID, error) {
	requestID, err := id.ParseRequestID(r.RequestID)
	if err != nil {
		return id.RequestID{}, dErrors.Wrap(err, dErrors.CodeMalformedCallback, "invalid request id")
	}
	return requestID, nil
}
