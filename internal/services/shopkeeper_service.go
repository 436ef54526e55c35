package services

import (
	"context"
	"fmt"
	"strings"

	"stockswap/internal/models"
	"stockswap/internal/repositories"
)

// UpdateShopkeeperInput is a partial profile update; nil fields are left unchanged.
type UpdateShopkeeperInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	ShopName *string `json:"shopName" validate:"omitempty,min=1,max=150"`
	Address  *string `json:"address" validate:"omitempty,min=1,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
}

// ShopkeeperService exposes shop profiles.
type ShopkeeperService struct {
	repo repositories.ShopkeeperRepository
}

func NewShopkeeperService(repo repositories.ShopkeeperRepository) *ShopkeeperService {
	return &ShopkeeperService{repo: repo}
}

// ListShops returns the public summaries of all shops ordered by shop name.
func (s *ShopkeeperService) ListShops(ctx context.Context, page models.Pagination) (models.Page[models.ShopSummary], error) {
	shopkeepers, total, err := s.repo.List(ctx, page)
	if err != nil {
		return models.Page[models.ShopSummary]{}, fmt.Errorf("failed to list shopkeepers: %w", err)
	}
	summaries := make([]models.ShopSummary, len(shopkeepers))
	for i := range shopkeepers {
		summaries[i] = *shopkeepers[i].Summary()
	}
	return models.NewPage(summaries, total, page), nil
}

// GetShop returns the public summary of one shop.
func (s *ShopkeeperService) GetShop(ctx context.Context, id string) (*models.ShopSummary, error) {
	shopkeeper, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Shopkeeper not found")
	}
	return shopkeeper.Summary(), nil
}

// GetProfile returns the caller's full profile (without password).
func (s *ShopkeeperService) GetProfile(ctx context.Context, id string) (*models.Shopkeeper, error) {
	shopkeeper, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Shopkeeper not found")
	}
	return shopkeeper, nil
}

// UpdateProfile changes the caller's own profile fields.
func (s *ShopkeeperService) UpdateProfile(ctx context.Context, id string, input UpdateShopkeeperInput) (*models.Shopkeeper, error) {
	shopkeeper, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		in  *string
		out *string
	}{
		{input.Name, &shopkeeper.Name},
		{input.ShopName, &shopkeeper.ShopName},
		{input.Address, &shopkeeper.Address},
	} {
		if f.in == nil {
			continue
		}
		if strings.TrimSpace(*f.in) == "" {
			return nil, BadRequest("Profile fields must not be empty")
		}
		*f.out = *f.in
	}
	if input.Phone != nil {
		shopkeeper.Phone = *input.Phone
	}

	if err := s.repo.Update(ctx, shopkeeper); err != nil {
		return nil, notFoundOr(err, "Shopkeeper not found")
	}
	return shopkeeper, nil
}
