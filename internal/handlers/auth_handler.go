package handlers

import (
	"log"

	"stockswap/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    NewValidator(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// HandleRegister handles new shopkeeper registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := bindBody(c, h.validate, &input); err != nil {
		return badInput(c, err)
	}

	resp, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		log.Printf("Error registering shopkeeper %s: %v", input.Email, err)
		return respondError(c, err, "Could not register shopkeeper")
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleLogin handles shopkeeper login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var input services.LoginInput
	if err := bindBody(c, h.validate, &input); err != nil {
		return badInput(c, err)
	}

	resp, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		log.Printf("Error during login for %s: %v", input.Email, err)
		return respondError(c, err, "Authentication failed")
	}
	return c.JSON(resp)
}
