package services_test

import (
	"context"
	"testing"

	"stockswap/internal/models"
	"stockswap/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestShopkeeperService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockShopkeeperRepository)
	service := services.NewShopkeeperService(mockRepo)

	existing := &models.Shopkeeper{ID: "shop-1", Name: "Ann", ShopName: "Ann's", Address: "1 Road", Password: "hash"}
	mockRepo.On("GetByID", ctx, "shop-1").Return(existing, nil).Once()
	mockRepo.On("Update", ctx, mock.MatchedBy(func(s *models.Shopkeeper) bool {
		return s.ShopName == "Ann's Deli" && s.Name == "Ann" && s.Phone == "555" && s.Password == "hash"
	})).Return(nil).Once()

	updated, err := service.UpdateProfile(ctx, "shop-1", services.UpdateShopkeeperInput{
		ShopName: strPtr("Ann's Deli"),
		Phone:    strPtr("555"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann's Deli", updated.ShopName)
	mockRepo.AssertExpectations(t)

	mockRepo.On("GetByID", ctx, "shop-1").Return(existing, nil).Once()
	_, err = service.UpdateProfile(ctx, "shop-1", services.UpdateShopkeeperInput{Address: strPtr("  ")})
	assert.Equal(t, services.KindBadRequest, services.KindOf(err))

	mockRepo.On("GetByID", ctx, "ghost").Return(nil, errNoShop).Once()
	_, err = service.UpdateProfile(ctx, "ghost", services.UpdateShopkeeperInput{})
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
	mockRepo.AssertExpectations(t)
}

func TestShopkeeperService_ListShops(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockShopkeeperRepository)
	service := services.NewShopkeeperService(mockRepo)

	page := models.Pagination{Page: 1, Limit: 2}
	mockRepo.On("List", ctx, page).Return([]models.Shopkeeper{
		{ID: "a", Email: "a@x", Name: "A", ShopName: "Alpha", Address: "1"},
		{ID: "b", Email: "b@x", Name: "B", ShopName: "Beta", Address: "2"},
	}, int64(5), nil).Once()

	result, err := service.ListShops(ctx, page)
	require.NoError(t, err)
	assert.EqualValues(t, 5, result.Total)
	assert.Equal(t, models.ShopSummary{ID: "a", Name: "A", ShopName: "Alpha", Address: "1"}, result.Data[0])

	mockRepo.On("GetByID", ctx, "b").Return(&models.Shopkeeper{ID: "b", ShopName: "Beta"}, nil).Once()
	shop, err := service.GetShop(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Beta", shop.ShopName)
	mockRepo.AssertExpectations(t)
}
