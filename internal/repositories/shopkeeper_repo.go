package repositories

import (
	"context"

	"stockswap/internal/models"
)

// ShopkeeperRepository defines the interface for shopkeeper data access.
type ShopkeeperRepository interface {
	Create(ctx context.Context, shopkeeper *models.Shopkeeper) error
	GetByID(ctx context.Context, id string) (*models.Shopkeeper, error)
	GetByEmail(ctx context.Context, email string) (*models.Shopkeeper, error)
	Update(ctx context.Context, shopkeeper *models.Shopkeeper) error
	List(ctx context.Context, page models.Pagination) ([]models.Shopkeeper, int64, error)
}
