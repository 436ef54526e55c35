package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"stockswap/internal/models"
	"stockswap/internal/repositories"

	"github.com/shopspring/decimal"
)

// DefaultExpiringSoonDays is the look-ahead window used when none is given.
const DefaultExpiringSoonDays = 7

// CreateProductInput is the body of a new product. The owner is the authenticated shop.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"omitempty,max=2000"`
	Price       decimal.Decimal `json:"price"`
	Quantity    *int            `json:"quantity" validate:"required,gte=0"`
	ExpiryDate  string          `json:"expiryDate" validate:"omitempty"`
	Category    string          `json:"category" validate:"omitempty,max=100"`
}

// UpdateProductInput is a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int             `json:"quantity" validate:"omitempty,gte=0"`
	ExpiryDate  *string          `json:"expiryDate"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo         repositories.ProductRepository
	availability *AvailabilityCalculator
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, requests repositories.ExportRequestRepository) *ProductService {
	return &ProductService{
		repo:         repo,
		availability: NewAvailabilityCalculator(requests),
	}
}

// CreateProduct creates a new product owned by shopID.
func (s *ProductService) CreateProduct(ctx context.Context, shopID string, input CreateProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, BadRequest("Product name must not be empty")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.Quantity == nil || *input.Quantity < 0 {
		return nil, BadRequest("Quantity must be zero or greater")
	}
	expiry, err := parseExpiryDate(input.ExpiryDate)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:         input.Name,
		Description:  input.Description,
		Price:        input.Price,
		Quantity:     *input.Quantity,
		ExpiryDate:   expiry,
		Category:     input.Category,
		ShopkeeperID: shopID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	log.Printf("Product %s (%s) created by shop %s", product.ID, product.Name, shopID)
	return s.GetProductByID(ctx, product.ID)
}

// GetAllProducts lists every shop's products, newest first.
func (s *ProductService) GetAllProducts(ctx context.Context, page models.Pagination) (models.Page[models.Product], error) {
	return s.list(ctx, models.ProductFilter{}, page)
}

// GetProductsByShop lists one shop's products.
func (s *ProductService) GetProductsByShop(ctx context.Context, shopID string, page models.Pagination) (models.Page[models.Product], error) {
	return s.list(ctx, models.ProductFilter{ShopkeeperID: shopID}, page)
}

// SearchProducts matches q case-insensitively against name, description and category.
func (s *ProductService) SearchProducts(ctx context.Context, q string, page models.Pagination) (models.Page[models.Product], error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return models.Page[models.Product]{}, BadRequest("Search query must not be empty")
	}
	return s.list(ctx, models.ProductFilter{Query: q}, page)
}

// GetExpiringSoon lists in-stock products expiring between now and now+days, soonest first.
func (s *ProductService) GetExpiringSoon(ctx context.Context, days int, page models.Pagination) (models.Page[models.Product], error) {
	if days == 0 {
		days = DefaultExpiringSoonDays
	}
	if days < 0 {
		return models.Page[models.Product]{}, BadRequest("days must be a positive number")
	}
	now := time.Now()
	until := now.AddDate(0, 0, days)
	return s.list(ctx, models.ProductFilter{ExpiresFrom: &now, ExpiresUntil: &until, InStockOnly: true}, page)
}

// GetProductByID retrieves a single product with its owner summary and available quantity.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	if err := s.availability.AnnotateOne(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies a partial update; only the owner may change a product.
func (s *ProductService) UpdateProduct(ctx context.Context, id, shopID string, input UpdateProductInput) (*models.Product, error) {
	product, err := s.owned(ctx, id, shopID, "update")
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, BadRequest("Product name must not be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		product.Price = *input.Price
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, BadRequest("Quantity must be zero or greater")
		}
		product.Quantity = *input.Quantity
	}
	if input.ExpiryDate != nil {
		expiry, err := parseExpiryDate(*input.ExpiryDate)
		if err != nil {
			return nil, err
		}
		product.ExpiryDate = expiry
	}
	if input.Category != nil {
		product.Category = *input.Category
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	return s.GetProductByID(ctx, id)
}

// DeleteProduct deletes a product; only the owner may delete it.
func (s *ProductService) DeleteProduct(ctx context.Context, id, shopID string) error {
	if _, err := s.owned(ctx, id, shopID, "delete"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Product not found")
	}
	log.Printf("Product %s deleted by shop %s", id, shopID)
	return nil
}

func (s *ProductService) owned(ctx context.Context, id, shopID, verb string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	if product.ShopkeeperID != shopID {
		return nil, Forbidden("You can only %s your own products", verb)
	}
	return product, nil
}

func (s *ProductService) list(ctx context.Context, filter models.ProductFilter, page models.Pagination) (models.Page[models.Product], error) {
	products, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return models.Page[models.Product]{}, fmt.Errorf("failed to list products: %w", err)
	}
	if err := s.availability.Annotate(ctx, products); err != nil {
		return models.Page[models.Product]{}, err
	}
	return models.NewPage(products, total, page), nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return BadRequest("Price must be a positive number")
	}
	if !price.Equal(price.Round(2)) {
		return BadRequest("Price must have at most 2 decimal places")
	}
	return nil
}

// parseExpiryDate accepts "2006-01-02" or RFC 3339. An empty string clears the date.
func parseExpiryDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, BadRequest("expiryDate must be a valid ISO 8601 date")
}
