package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"stockswap/internal/models"

	"github.com/google/uuid"
)

// memoryProductRepository is the in-memory implementation of ProductRepository.
type memoryProductRepository struct {
	s *MemoryStore
}

// withOwner returns a copy of p with its owner summary attached.
func (r *memoryProductRepository) withOwner(p models.Product) *models.Product {
	if sk, ok := r.s.data.shopkeepers[p.ShopkeeperID]; ok {
		p.Shopkeeper = sk.Summary()
	}
	return &p
}

func (r *memoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	defer r.s.rlock()()

	product, ok := r.s.data.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return r.withOwner(product), nil
}

// GetByIDForUpdate is GetByID; transactions already hold the store lock.
func (r *memoryProductRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Product, error) {
	product, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Shopkeeper = nil
	return product, nil
}

func (r *memoryProductRepository) FindByOwnerAndName(_ context.Context, shopkeeperID, name string) (*models.Product, error) {
	defer r.s.rlock()()

	var found *models.Product
	for _, p := range r.s.data.products {
		if p.ShopkeeperID != shopkeeperID || p.Name != name {
			continue
		}
		if found == nil || r.s.data.seq[p.ID] < r.s.data.seq[found.ID] {
			p := p
			found = &p
		}
	}
	if found == nil {
		return nil, fmt.Errorf("product %q of shop %s: %w", name, shopkeeperID, ErrNotFound)
	}
	return found, nil
}

func (r *memoryProductRepository) List(_ context.Context, filter models.ProductFilter, page models.Pagination) ([]models.Product, int64, error) {
	defer r.s.rlock()()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	ids := make([]string, 0, len(r.s.data.products))
	for id, p := range r.s.data.products {
		if filter.ShopkeeperID != "" && p.ShopkeeperID != filter.ShopkeeperID {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			continue
		}
		if filter.ExpiresFrom != nil && (p.ExpiryDate == nil || p.ExpiryDate.Before(*filter.ExpiresFrom)) {
			continue
		}
		if filter.ExpiresUntil != nil && (p.ExpiryDate == nil || p.ExpiryDate.After(*filter.ExpiresUntil)) {
			continue
		}
		if filter.InStockOnly && p.Quantity <= 0 {
			continue
		}
		ids = append(ids, id)
	}

	if filter.ExpiresUntil != nil {
		sort.Slice(ids, func(i, j int) bool {
			return r.s.data.products[ids[i]].ExpiryDate.Before(*r.s.data.products[ids[j]].ExpiryDate)
		})
	} else {
		r.s.newestFirst(ids)
	}

	productList := make([]models.Product, 0, len(ids))
	for _, id := range paginate(ids, page) {
		productList = append(productList, *r.withOwner(r.s.data.products[id]))
	}
	return productList, int64(len(ids)), nil
}

func (r *memoryProductRepository) Create(_ context.Context, product *models.Product) error {
	defer r.s.lock()()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.s.data.products[product.ID]; exists {
		return fmt.Errorf("failed to create product: duplicate ID %s", product.ID)
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	stored := *product
	stored.Shopkeeper = nil
	stored.AvailableQuantity = nil
	r.s.data.products[product.ID] = stored
	r.s.data.stamp(product.ID)
	return nil
}

func (r *memoryProductRepository) Update(_ context.Context, product *models.Product) error {
	defer r.s.lock()()

	existing, ok := r.s.data.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	existing.Name = product.Name
	existing.Description = product.Description
	existing.Price = product.Price
	existing.Quantity = product.Quantity
	existing.ExpiryDate = product.ExpiryDate
	existing.Category = product.Category
	existing.UpdatedAt = time.Now()
	product.UpdatedAt = existing.UpdatedAt
	r.s.data.products[product.ID] = existing
	return nil
}

func (r *memoryProductRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock()()

	if _, ok := r.s.data.products[id]; !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	delete(r.s.data.products, id)
	delete(r.s.data.seq, id)
	return nil
}

func (r *memoryProductRepository) DecrementQuantity(_ context.Context, id string, by int) error {
	return r.adjust(id, func(q int) int {
		if q > by {
			return q - by
		}
		return 0
	})
}

func (r *memoryProductRepository) IncrementQuantity(_ context.Context, id string, by int) error {
	return r.adjust(id, func(q int) int { return q + by })
}

func (r *memoryProductRepository) adjust(id string, fn func(int) int) error {
	defer r.s.lock()()

	p, ok := r.s.data.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	p.Quantity = fn(p.Quantity)
	p.UpdatedAt = time.Now()
	r.s.data.products[id] = p
	return nil
}
