package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockswap/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetByID retrieves a single product with its owner summary.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Shopkeeper").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByIDForUpdate reads the product row under SELECT ... FOR UPDATE. SQLite ignores the
// locking clause; its transactions already serialise writers.
func (r *GORMProductRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock product %s: %w", id, err)
	}
	return &product, nil
}

// FindByOwnerAndName locks and returns the shop's product with exactly this name.
func (r *GORMProductRepository) FindByOwnerAndName(ctx context.Context, shopkeeperID, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shopkeeper_id = ? AND name = ?", shopkeeperID, name).
		Order("created_at ASC").
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %q of shop %s: %w", name, shopkeeperID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find product %q of shop %s: %w", name, shopkeeperID, err)
	}
	return &product, nil
}

// List returns products matching the filter, newest first.
func (r *GORMProductRepository) List(ctx context.Context, filter models.ProductFilter, page models.Pagination) ([]models.Product, int64, error) {
	scope := productFilterScope(filter)
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Product{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	page = page.Normalize()
	var products []models.Product
	order := "created_at DESC, id DESC"
	if filter.ExpiresUntil != nil {
		order = "expiry_date ASC, id ASC"
	}
	err := db.Scopes(scope).
		Preload("Shopkeeper").
		Order(order).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func productFilterScope(filter models.ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ShopkeeperID != "" {
			db = db.Where("shopkeeper_id = ?", filter.ShopkeeperID)
		}
		if q := strings.TrimSpace(filter.Query); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			db = db.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?)", like, like, like)
		}
		if filter.ExpiresFrom != nil {
			db = db.Where("expiry_date >= ?", *filter.ExpiresFrom)
		}
		if filter.ExpiresUntil != nil {
			db = db.Where("expiry_date <= ?", *filter.ExpiresUntil)
		}
		if filter.InStockOnly {
			db = db.Where("quantity > 0")
		}
		return db
	}
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes the owner-editable fields of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"quantity":    product.Quantity,
		"expiry_date": product.ExpiryDate,
		"category":    product.Category,
		"updated_at":  product.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// DecrementQuantity lowers the stock in one statement so concurrent writers cannot lose
// updates; the CASE keeps the column at zero or above.
func (r *GORMProductRepository) DecrementQuantity(ctx context.Context, id string, by int) error {
	return r.adjustQuantity(ctx, id, gorm.Expr("CASE WHEN quantity > ? THEN quantity - ? ELSE 0 END", by, by))
}

// IncrementQuantity raises the stock in one statement.
func (r *GORMProductRepository) IncrementQuantity(ctx context.Context, id string, by int) error {
	return r.adjustQuantity(ctx, id, gorm.Expr("quantity + ?", by))
}

func (r *GORMProductRepository) adjustQuantity(ctx context.Context, id string, expr clause.Expr) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"quantity":   expr,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to adjust quantity of product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
