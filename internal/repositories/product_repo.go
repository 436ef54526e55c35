package repositories

import (
	"context"
	"errors"

	"stockswap/internal/models"
)

// ErrNotFound is returned (wrapped) by every repository when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStatusConflict is returned by ExportRequestRepository.UpdateStatus when the
// request is no longer in the expected status.
var ErrStatusConflict = errors.New("export request status changed concurrently")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// GetByIDForUpdate reads a product and locks its row until the surrounding
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Product, error)
	// FindByOwnerAndName matches the name exactly, case-sensitive.
	FindByOwnerAndName(ctx context.Context, shopkeeperID, name string) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter, page models.Pagination) ([]models.Product, int64, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// DecrementQuantity subtracts by from the on-hand quantity, flooring at zero, as a
	// single store-level update.
	DecrementQuantity(ctx context.Context, id string, by int) error
	// IncrementQuantity adds by to the on-hand quantity as a single store-level update.
	IncrementQuantity(ctx context.Context, id string, by int) error
}
