package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockswap/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMShopkeeperRepository is a GORM implementation of ShopkeeperRepository.
type GORMShopkeeperRepository struct {
	db *gorm.DB
}

// NewGORMShopkeeperRepository creates a new instance of GORMShopkeeperRepository.
func NewGORMShopkeeperRepository(db *gorm.DB) *GORMShopkeeperRepository {
	return &GORMShopkeeperRepository{
		db: db,
	}
}

// Create creates a new shopkeeper in the database.
func (r *GORMShopkeeperRepository) Create(ctx context.Context, shopkeeper *models.Shopkeeper) error {
	if shopkeeper.ID == "" {
		shopkeeper.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(shopkeeper).Error; err != nil {
		return fmt.Errorf("failed to create shopkeeper: %w", err)
	}
	return nil
}

// GetByEmail retrieves a shopkeeper by their email from the database.
func (r *GORMShopkeeperRepository) GetByEmail(ctx context.Context, email string) (*models.Shopkeeper, error) {
	var shopkeeper models.Shopkeeper
	if err := r.db.WithContext(ctx).First(&shopkeeper, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shopkeeper with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get shopkeeper by email %s: %w", email, err)
	}
	return &shopkeeper, nil
}

// GetByID retrieves a shopkeeper by their ID from the database.
func (r *GORMShopkeeperRepository) GetByID(ctx context.Context, id string) (*models.Shopkeeper, error) {
	var shopkeeper models.Shopkeeper
	if err := r.db.WithContext(ctx).First(&shopkeeper, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shopkeeper with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get shopkeeper by ID %s: %w", id, err)
	}
	return &shopkeeper, nil
}

// Update writes the profile fields and password hash of an existing shopkeeper.
func (r *GORMShopkeeperRepository) Update(ctx context.Context, shopkeeper *models.Shopkeeper) error {
	shopkeeper.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Shopkeeper{}).Where("id = ?", shopkeeper.ID).Updates(map[string]interface{}{
		"name":       shopkeeper.Name,
		"shop_name":  shopkeeper.ShopName,
		"address":    shopkeeper.Address,
		"phone":      shopkeeper.Phone,
		"password":   shopkeeper.Password,
		"updated_at": shopkeeper.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update shopkeeper: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("shopkeeper with ID %s: %w", shopkeeper.ID, ErrNotFound)
	}
	return nil
}

// List returns shopkeepers ordered by shop name.
func (r *GORMShopkeeperRepository) List(ctx context.Context, page models.Pagination) ([]models.Shopkeeper, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Shopkeeper{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count shopkeepers: %w", err)
	}

	page = page.Normalize()
	var shopkeepers []models.Shopkeeper
	if err := db.Order("shop_name ASC, id ASC").Offset(page.Offset()).Limit(page.Limit).Find(&shopkeepers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list shopkeepers: %w", err)
	}
	return shopkeepers, total, nil
}
