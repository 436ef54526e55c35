package handlers

import (
	"strconv"

	"stockswap/internal/middleware"
	"stockswap/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: NewValidator(),
	}
}

// RegisterRoutes registers the product routes. Fixed paths come before /:id.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Post("/", h.HandleCreateProduct)
	products.Get("/", h.HandleGetProducts)
	products.Get("/search", h.HandleSearchProducts)
	products.Get("/expiring-soon", h.HandleExpiringSoon)
	products.Get("/my-products", h.HandleGetMyProducts)
	products.Get("/shop/:shopkeeperId", h.HandleGetShopProducts)
	products.Get("/:id", h.HandleGetProductByID)
	products.Patch("/:id", h.HandleUpdateProduct)
	products.Delete("/:id", h.HandleDeleteProduct)
}

// HandleCreateProduct adds a product to the caller's inventory.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input services.CreateProductInput
	if err := bindBody(c, h.validate, &input); err != nil {
		return badInput(c, err)
	}
	product, err := h.service.CreateProduct(c.UserContext(), middleware.ShopID(c), input)
	if err != nil {
		return respondError(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleGetProducts lists all products with their available quantity.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	page, err := bindPagination(c, h.validate)
	if err != nil {
		return badInput(c, err)
	}
	products, err := h.service.GetAllProducts(c.UserContext(), page)
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	page, err := bindPagination(c, h.validate)
	if err != nil {
		return badInput(c, err)
	}
	products, err := h.service.SearchProducts(c.UserContext(), c.Query("q"), page)
	if err != nil {
		return respondError(c, err, "Could not search products")
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleExpiringSoon(c *fiber.Ctx) error {
	page, err := bindPagination(c, h.validate)
	if err != nil {
		return badInput(c, err)
	}
	days := services.DefaultExpiringSoonDays
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "days must be a positive integer",
			})
		}
	}
	products, err := h.service.GetExpiringSoon(c.UserContext(), days, page)
	if err != nil {
		return respondError(c, err, "Could not retrieve expiring products")
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleGetMyProducts(c *fiber.Ctx) error {
	return h.shopProducts(c, middleware.ShopID(c))
}

func (h *ProductHandler) HandleGetShopProducts(c *fiber.Ctx) error {
	return h.shopProducts(c, c.Params("shopkeeperId"))
}

func (h *ProductHandler) shopProducts(c *fiber.Ctx, shopID string) error {
	page, err := bindPagination(c, h.validate)
	if err != nil {
		return badInput(c, err)
	}
	products, err := h.service.GetProductsByShop(c.UserContext(), shopID, page)
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleUpdateProduct applies a partial update to one of the caller's products.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var input services.UpdateProductInput
	if err := bindBody(c, h.validate, &input); err != nil {
		return badInput(c, err)
	}
	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), middleware.ShopID(c), input)
	if err != nil {
		return respondError(c, err, "Could not update product")
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id"), middleware.ShopID(c)); err != nil {
		return respondError(c, err, "Could not delete product")
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}
