package repositories

import (
	"context"

	"stockswap/internal/models"
)

// ExportRequestRepository defines the interface for export request data access.
// Read methods return requests joined with their product (and its owner) and both
// shop summaries.
type ExportRequestRepository interface {
	GetByID(ctx context.Context, id string) (*models.ExportRequest, error)
	Create(ctx context.Context, req *models.ExportRequest) error
	// UpdateStatus moves a request from one status to another. A nil message leaves the
	// stored message untouched. Returns ErrStatusConflict when the request is not
	// currently in status from.
	UpdateStatus(ctx context.Context, id string, from, to models.ExportStatus, message *string) error
	// Delete removes the request only while it is in the given status; otherwise it
	// returns ErrStatusConflict.
	Delete(ctx context.Context, id string, status models.ExportStatus) error
	// List returns matching requests newest-first and the total match count.
	List(ctx context.Context, filter models.ExportRequestFilter, page models.Pagination) ([]models.ExportRequest, int64, error)
	// FindPending returns the pending request for the (product, from, to) triple, if any.
	FindPending(ctx context.Context, productID, fromShopID, toShopID string) (*models.ExportRequest, error)
	// ListPendingForProducts returns all pending requests referencing any of the products,
	// without joins.
	ListPendingForProducts(ctx context.Context, productIDs []string) ([]models.ExportRequest, error)
}

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Products() ProductRepository
	Shopkeepers() ShopkeeperRepository
	ExportRequests() ExportRequestRepository
	// RunInTransaction executes fn with a Store bound to a single transaction. If fn
	// returns an error nothing it wrote is persisted.
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error
}
