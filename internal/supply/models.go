// Package supply manages aid packages: resource offers whose contents are
// held encrypted until an eligibility verification consumes them.
package supply

import (
	"time"

	"aidledger/internal/oracle"
	id "aidledger/pkg/domain"
)

// AidPackage is a resource offer. Like records, packages are immutable after
// creation and never deleted, so verifications may reference them weakly by ID.
type AidPackage struct {
	ID                  id.PackageID
	EncryptedResources  oracle.Handle
	EncryptedQuantities oracle.Handle
	CreatedAt           time.Time
	Owner               id.AgencyID
}
