package authz

import (
	"log/slog"

	"github.com/google/uuid"

	id "aidledger/pkg/domain"
)

// SeedDevAgency registers a fully-privileged agency with a well-known key for
// local development. Never enabled outside dev mode.
func SeedDevAgency(policy *StaticPolicy, logger *slog.Logger) id.AgencyID {
	const devKey = "dev-agency-key"

	hash, err := HashKey(devKey)
	if err != nil {
		logger.Error("failed to hash dev agency key", "error", err)
		return id.AgencyID{}
	}

	agencyID := id.AgencyID(uuid.MustParse("00000000-0000-4000-8000-000000000001"))
	policy.Register(Agency{
		ID:      agencyID,
		Name:    "dev-agency",
		KeyHash: hash,
		Allowed: map[Operation]bool{
			OpRecordCreate:     true,
			OpRecordApprove:    true,
			OpRecordDistribute: true,
			OpPackageCreate:    true,
			OpVerifyRequest:    true,
			OpRevealRequest:    true,
		},
	})

	logger.Info("seeded dev agency", "agency_id", agencyID.String(), "api_key", devKey)
	return agencyID
}
