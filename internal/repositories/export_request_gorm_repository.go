package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockswap/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMExportRequestRepository is a GORM implementation of ExportRequestRepository.
type GORMExportRequestRepository struct {
	db *gorm.DB
}

// NewGORMExportRequestRepository creates a new instance of GORMExportRequestRepository.
func NewGORMExportRequestRepository(db *gorm.DB) *GORMExportRequestRepository {
	return &GORMExportRequestRepository{
		db: db,
	}
}

func withJoins(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Product").
		Preload("Product.Shopkeeper").
		Preload("FromShop").
		Preload("ToShop")
}

// GetByID retrieves an export request with its product and shop summaries.
func (r *GORMExportRequestRepository) GetByID(ctx context.Context, id string) (*models.ExportRequest, error) {
	var req models.ExportRequest
	if err := r.db.WithContext(ctx).Scopes(withJoins).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("export request with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get export request %s: %w", id, err)
	}
	return &req, nil
}

// Create inserts a new export request. Joined fields are ignored.
func (r *GORMExportRequestRepository) Create(ctx context.Context, req *models.ExportRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = models.ExportStatusPending
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create export request: %w", err)
	}
	return nil
}

// UpdateStatus performs a compare-and-set on the status column.
func (r *GORMExportRequestRepository) UpdateStatus(ctx context.Context, id string, from, to models.ExportStatus, message *string) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if message != nil {
		updates["message"] = *message
	}
	db := r.db.WithContext(ctx)
	res := db.Model(&models.ExportRequest{}).Where("id = ? AND status = ?", id, from).UpdateColumns(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update export request %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.missingOrConflict(db, id, from)
}

// Delete removes an export request row if it is still in status.
func (r *GORMExportRequestRepository) Delete(ctx context.Context, id string, status models.ExportStatus) error {
	db := r.db.WithContext(ctx)
	res := db.Where("id = ? AND status = ?", id, status).Delete(&models.ExportRequest{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete export request: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.missingOrConflict(db, id, status)
}

// missingOrConflict explains why a status-guarded write touched no rows.
func (r *GORMExportRequestRepository) missingOrConflict(db *gorm.DB, id string, status models.ExportStatus) error {
	var count int64
	if err := db.Model(&models.ExportRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check export request %s: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("export request with ID %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("export request %s is not %s: %w", id, status, ErrStatusConflict)
}

// List returns matching export requests newest first.
func (r *GORMExportRequestRepository) List(ctx context.Context, filter models.ExportRequestFilter, page models.Pagination) ([]models.ExportRequest, int64, error) {
	scope := exportRequestFilterScope(filter)
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.ExportRequest{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count export requests: %w", err)
	}

	page = page.Normalize()
	var reqs []models.ExportRequest
	err := db.Scopes(scope, withJoins).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&reqs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list export requests: %w", err)
	}
	return reqs, total, nil
}

func exportRequestFilterScope(filter models.ExportRequestFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ProductID != "" {
			db = db.Where("product_id = ?", filter.ProductID)
		}
		if filter.FromShopID != "" {
			db = db.Where("from_shop_id = ?", filter.FromShopID)
		}
		if filter.ToShopID != "" {
			db = db.Where("to_shop_id = ?", filter.ToShopID)
		}
		if filter.ParticipantID != "" {
			db = db.Where("(from_shop_id = ? OR to_shop_id = ?)", filter.ParticipantID, filter.ParticipantID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}
}

// FindPending returns the pending request for the triple, or ErrNotFound.
func (r *GORMExportRequestRepository) FindPending(ctx context.Context, productID, fromShopID, toShopID string) (*models.ExportRequest, error) {
	var req models.ExportRequest
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND from_shop_id = ? AND to_shop_id = ? AND status = ?",
			productID, fromShopID, toShopID, models.ExportStatusPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("pending export request: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up pending export request: %w", err)
	}
	return &req, nil
}

// ListPendingForProducts returns the pending requests of the given products, unjoined.
func (r *GORMExportRequestRepository) ListPendingForProducts(ctx context.Context, productIDs []string) ([]models.ExportRequest, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var reqs []models.ExportRequest
	err := r.db.WithContext(ctx).
		Where("product_id IN ? AND status = ?", productIDs, models.ExportStatusPending).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending export requests: %w", err)
	}
	return reqs, nil
}
