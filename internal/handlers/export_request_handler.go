package handlers

import (
	"log"
	"strings"

	"stockswap/internal/middleware"
	"stockswap/internal/models"
	"stockswap/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ExportRequestHandler handles HTTP requests for export requests.
type ExportRequestHandler struct {
	service  *services.ExportRequestService
	validate *validator.Validate
}

// NewExportRequestHandler creates a new ExportRequestHandler.
func NewExportRequestHandler(service *services.ExportRequestService) *ExportRequestHandler {
	return &ExportRequestHandler{
		service:  service,
		validate: NewValidator(),
	}
}

// RegisterRoutes registers the export request routes with the Fiber app.
func (h *ExportRequestHandler) RegisterRoutes(router fiber.Router) {
	exports := router.Group("/export-requests")
	exports.Post("/", h.HandleCreate)
	exports.Get("/", h.HandleFindAll)
	exports.Get("/my-requests", h.HandleFindMine)
	exports.Get("/sent", h.HandleFindMine)
	exports.Get("/pending-for-me", h.HandleFindForMe)
	exports.Get("/received", h.HandleFindForMe)
	exports.Get("/status/:status", h.HandleFindByStatus)
	exports.Get("/product/:productId", h.HandleFindByProduct)
	exports.Get("/:id", h.HandleFindOne)
	exports.Patch("/:id/accept", h.HandleAccept)
	exports.Patch("/:id/reject", h.HandleReject)
	exports.Patch("/:id/cancel", h.HandleCancel)
	exports.Delete("/:id", h.HandleRemove)
}

// decisionBody is the optional body of accept/reject.
type decisionBody struct {
	Message *string `json:"message" validate:"omitempty,max=1000"`
}

// HandleCreate opens a new export request from the caller's shop.
func (h *ExportRequestHandler) HandleCreate(c *fiber.Ctx) error {
	var input services.CreateExportRequestInput
	if err := bindBody(c, h.validate, &input); err != nil {
		return badInput(c, err)
	}
	req, err := h.service.Create(c.UserContext(), middleware.ShopID(c), input)
	if err != nil {
		log.Printf("Error creating export request: %v", err)
		return respondError(c, err, "Could not create export request")
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

func (h *ExportRequestHandler) HandleFindAll(c *fiber.Ctx) error {
	return h.page(c, func(p models.Pagination) (models.Page[models.ExportRequest], error) {
		return h.service.FindAll(c.UserContext(), p)
	})
}

// HandleFindMine lists requests the caller sent.
func (h *ExportRequestHandler) HandleFindMine(c *fiber.Ctx) error {
	return h.page(c, func(p models.Pagination) (models.Page[models.ExportRequest], error) {
		return h.service.FindMyRequests(c.UserContext(), middleware.ShopID(c), p)
	})
}

// HandleFindForMe lists requests addressed to the caller.
func (h *ExportRequestHandler) HandleFindForMe(c *fiber.Ctx) error {
	return h.page(c, func(p models.Pagination) (models.Page[models.ExportRequest], error) {
		return h.service.FindRequestsForMe(c.UserContext(), middleware.ShopID(c), p)
	})
}

func (h *ExportRequestHandler) HandleFindByStatus(c *fiber.Ctx) error {
	status := models.ExportStatus(strings.ToUpper(c.Params("status")))
	return h.page(c, func(p models.Pagination) (models.Page[models.ExportRequest], error) {
		return h.service.FindByStatus(c.UserContext(), middleware.ShopID(c), status, p)
	})
}

func (h *ExportRequestHandler) HandleFindByProduct(c *fiber.Ctx) error {
	return h.page(c, func(p models.Pagination) (models.Page[models.ExportRequest], error) {
		return h.service.FindByProduct(c.UserContext(), c.Params("productId"), middleware.ShopID(c), p)
	})
}

func (h *ExportRequestHandler) page(c *fiber.Ctx, fetch func(models.Pagination) (models.Page[models.ExportRequest], error)) error {
	p, err := bindPagination(c, h.validate)
	if err != nil {
		return badInput(c, err)
	}
	result, err := fetch(p)
	if err != nil {
		return respondError(c, err, "Could not retrieve export requests")
	}
	return c.JSON(result)
}

// HandleFindOne returns a request to either of its two shops.
func (h *ExportRequestHandler) HandleFindOne(c *fiber.Ctx) error {
	req, err := h.service.FindOneForShop(c.UserContext(), c.Params("id"), middleware.ShopID(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve export request")
	}
	return c.JSON(req)
}

// HandleAccept accepts a pending request and moves the stock.
func (h *ExportRequestHandler) HandleAccept(c *fiber.Ctx) error {
	body, err := h.decision(c)
	if err != nil {
		return badInput(c, err)
	}
	req, err := h.service.AcceptRequest(c.UserContext(), c.Params("id"), middleware.ShopID(c), body.Message)
	if err != nil {
		log.Printf("Error accepting export request %s: %v", c.Params("id"), err)
		return respondError(c, err, "Could not accept export request")
	}
	return c.JSON(req)
}

func (h *ExportRequestHandler) HandleReject(c *fiber.Ctx) error {
	body, err := h.decision(c)
	if err != nil {
		return badInput(c, err)
	}
	req, err := h.service.RejectRequest(c.UserContext(), c.Params("id"), middleware.ShopID(c), body.Message)
	if err != nil {
		return respondError(c, err, "Could not reject export request")
	}
	return c.JSON(req)
}

// decision reads the optional accept/reject body; an empty body is allowed.
func (h *ExportRequestHandler) decision(c *fiber.Ctx) (decisionBody, error) {
	var body decisionBody
	if len(c.Body()) == 0 {
		return body, nil
	}
	err := bindBody(c, h.validate, &body)
	return body, err
}

func (h *ExportRequestHandler) HandleCancel(c *fiber.Ctx) error {
	if err := h.service.CancelRequest(c.UserContext(), c.Params("id"), middleware.ShopID(c)); err != nil {
		return respondError(c, err, "Could not cancel export request")
	}
	return c.JSON(fiber.Map{"message": "Export request cancelled successfully"})
}

func (h *ExportRequestHandler) HandleRemove(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext(), c.Params("id"), middleware.ShopID(c)); err != nil {
		return respondError(c, err, "Could not delete export request")
	}
	return c.JSON(fiber.Map{"message": "Export request deleted successfully"})
}
