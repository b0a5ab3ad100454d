// Package authz is the access policy gate. Every mutating ledger operation
// consults it before touching state; policy content (which agencies may do
// what) is configuration, not core logic.
package authz

import (
	"context"

	id "aidledger/pkg/domain"
)

// Operation names a gated mutating operation.
type Operation string

const (
	OpRecordCreate     Operation = "records:create"
	OpRecordApprove    Operation = "records:approve"
	OpRecordDistribute Operation = "records:distribute"
	OpPackageCreate    Operation = "packages:create"
	OpVerifyRequest    Operation = "verifications:request"
	OpRevealRequest    Operation = "verifications:reveal"
)

// Policy decides whether a caller may perform an operation. Implementations
// return a CodeUnauthorized domain error on denial; the caller performs no
// state change in that case.
type Policy interface {
	Authorize(ctx context.Context, caller id.AgencyID, op Operation) error
}
