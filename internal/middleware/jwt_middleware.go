package middleware

import (
	"log"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthRequired.
const (
	LocalShopID = "shop_id"
	LocalEmail  = "email"
)

// TokenValidator is satisfied by services.AuthService.
type TokenValidator interface {
	ValidateToken(tokenString string) (jwt.MapClaims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(auth TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(LocalShopID, claims["sub"])
		c.Locals(LocalEmail, claims["email"])

		return c.Next()
	}
}

// ShopID returns the authenticated shop's id, or "" outside AuthRequired.
func ShopID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalShopID).(string)
	return id
}
