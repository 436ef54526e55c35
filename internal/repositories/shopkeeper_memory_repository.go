package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockswap/internal/models"

	"github.com/google/uuid"
)

type memoryShopkeeperRepository struct {
	s *MemoryStore
}

func (r *memoryShopkeeperRepository) Create(_ context.Context, shopkeeper *models.Shopkeeper) error {
	defer r.s.lock()()

	if shopkeeper.ID == "" {
		shopkeeper.ID = uuid.New().String()
	}
	for _, existing := range r.s.data.shopkeepers {
		if existing.Email == shopkeeper.Email {
			return fmt.Errorf("failed to create shopkeeper: email %s already exists", shopkeeper.Email)
		}
	}
	now := time.Now()
	shopkeeper.CreatedAt = now
	shopkeeper.UpdatedAt = now
	r.s.data.shopkeepers[shopkeeper.ID] = *shopkeeper
	r.s.data.stamp(shopkeeper.ID)
	return nil
}

func (r *memoryShopkeeperRepository) GetByID(_ context.Context, id string) (*models.Shopkeeper, error) {
	defer r.s.rlock()()

	sk, ok := r.s.data.shopkeepers[id]
	if !ok {
		return nil, fmt.Errorf("shopkeeper with ID %s: %w", id, ErrNotFound)
	}
	return &sk, nil
}

func (r *memoryShopkeeperRepository) GetByEmail(_ context.Context, email string) (*models.Shopkeeper, error) {
	defer r.s.rlock()()

	for _, sk := range r.s.data.shopkeepers {
		if sk.Email == email {
			sk := sk
			return &sk, nil
		}
	}
	return nil, fmt.Errorf("shopkeeper with email %s: %w", email, ErrNotFound)
}

func (r *memoryShopkeeperRepository) Update(_ context.Context, shopkeeper *models.Shopkeeper) error {
	defer r.s.lock()()

	existing, ok := r.s.data.shopkeepers[shopkeeper.ID]
	if !ok {
		return fmt.Errorf("shopkeeper with ID %s: %w", shopkeeper.ID, ErrNotFound)
	}
	existing.Name = shopkeeper.Name
	existing.ShopName = shopkeeper.ShopName
	existing.Address = shopkeeper.Address
	existing.Phone = shopkeeper.Phone
	existing.Password = shopkeeper.Password
	existing.UpdatedAt = time.Now()
	shopkeeper.UpdatedAt = existing.UpdatedAt
	r.s.data.shopkeepers[shopkeeper.ID] = existing
	return nil
}

func (r *memoryShopkeeperRepository) List(_ context.Context, page models.Pagination) ([]models.Shopkeeper, int64, error) {
	defer r.s.rlock()()

	all := make([]models.Shopkeeper, 0, len(r.s.data.shopkeepers))
	for _, sk := range r.s.data.shopkeepers {
		all = append(all, sk)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].ShopName != all[j].ShopName {
			return all[i].ShopName < all[j].ShopName
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page), int64(len(all)), nil
}
