package handlers

import (
	"stockswap/internal/middleware"
	"stockswap/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ShopkeeperHandler serves shop profiles.
type ShopkeeperHandler struct {
	service  *services.ShopkeeperService
	validate *validator.Validate
}

func NewShopkeeperHandler(service *services.ShopkeeperService) *ShopkeeperHandler {
	return &ShopkeeperHandler{
		service:  service,
		validate: NewValidator(),
	}
}

// RegisterRoutes registers the shopkeeper routes. /me is registered before /:id.
func (h *ShopkeeperHandler) RegisterRoutes(router fiber.Router) {
	shops := router.Group("/shopkeepers")
	shops.Get("/", h.HandleList)
	shops.Get("/me", h.HandleGetMe)
	shops.Patch("/me", h.HandleUpdateMe)
	shops.Get("/:id", h.HandleGet)
}

func (h *ShopkeeperHandler) HandleList(c *fiber.Ctx) error {
	page, err := bindPagination(c, h.validate)
	if err != nil {
		return badInput(c, err)
	}
	shops, err := h.service.ListShops(c.UserContext(), page)
	if err != nil {
		return respondError(c, err, "Could not retrieve shopkeepers")
	}
	return c.JSON(shops)
}

func (h *ShopkeeperHandler) HandleGetMe(c *fiber.Ctx) error {
	me, err := h.service.GetProfile(c.UserContext(), middleware.ShopID(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve profile")
	}
	return c.JSON(me)
}

func (h *ShopkeeperHandler) HandleUpdateMe(c *fiber.Ctx) error {
	var input services.UpdateShopkeeperInput
	if err := bindBody(c, h.validate, &input); err != nil {
		return badInput(c, err)
	}
	me, err := h.service.UpdateProfile(c.UserContext(), middleware.ShopID(c), input)
	if err != nil {
		return respondError(c, err, "Could not update profile")
	}
	return c.JSON(me)
}

func (h *ShopkeeperHandler) HandleGet(c *fiber.Ctx) error {
	shop, err := h.service.GetShop(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve shopkeeper")
	}
	return c.JSON(shop)
}
