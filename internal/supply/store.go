package supply

import (
	"context"

	id "aidledger/pkg/domain"
)

// Store is the durable mapping from package ID to AidPackage. Same contract
// as the record store: IDs are unique forever, the ID index is append-only,
// and there is no delete.
type Store interface {
	Create(ctx context.Context, pkg *AidPackage) error
	FindByID(ctx context.Context, packageID id.PackageID) (*AidPackage, error)
	ListIDs(ctx context.Context) ([]id.PackageID, error)
}
