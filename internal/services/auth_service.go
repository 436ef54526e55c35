package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"stockswap/internal/models"
	"stockswap/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenDuration is how long an access token stays valid when no duration is configured.
const DefaultTokenDuration = 7 * 24 * time.Hour

// RegisterInput is the sign-up body of a new shop.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=100"`
	ShopName string `json:"shopName" validate:"required,max=150"`
	Address  string `json:"address" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
}

// LoginInput carries email/password credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	AccessToken string             `json:"access_token"`
	Shopkeeper  *models.Shopkeeper `json:"shopkeeper"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	shopkeepers repositories.ShopkeeperRepository
	jwtSecret   []byte
	tokenDurat  time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService. A zero tokenDuration falls back to DefaultTokenDuration.
func NewAuthService(shopkeepers repositories.ShopkeeperRepository, jwtSecret string, tokenDuration time.Duration) *AuthService {
	if tokenDuration <= 0 {
		tokenDuration = DefaultTokenDuration
	}
	return &AuthService{
		shopkeepers: shopkeepers,
		jwtSecret:   []byte(jwtSecret),
		tokenDurat:  tokenDuration,
	}
}

// Register creates a shopkeeper with a hashed password and signs them in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err := s.shopkeepers.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, Conflict("Email '%s' is already registered", email)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	shopkeeper := &models.Shopkeeper{
		Email:    email,
		Password: string(hashedPassword),
		Name:     input.Name,
		ShopName: input.ShopName,
		Address:  input.Address,
		Phone:    input.Phone,
	}
	if err := s.shopkeepers.Create(ctx, shopkeeper); err != nil {
		return nil, fmt.Errorf("failed to register shopkeeper: %w", err)
	}
	log.Printf("Shopkeeper %s registered shop %q", shopkeeper.ID, shopkeeper.ShopName)

	return s.respond(shopkeeper)
}

// Login authenticates a shopkeeper and returns a JWT token if successful.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	shopkeeper, err := s.shopkeepers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, Unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("failed to look up shopkeeper: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(shopkeeper.Password), []byte(input.Password)); err != nil {
		return nil, Unauthorized("Invalid credentials")
	}

	return s.respond(shopkeeper)
}

func (s *AuthService) respond(shopkeeper *models.Shopkeeper) (*AuthResponse, error) {
	token, err := s.GenerateToken(shopkeeper)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{AccessToken: token, Shopkeeper: shopkeeper}, nil
}

// GenerateToken signs an HS256 token whose subject is the shopkeeper id.
func (s *AuthService) GenerateToken(shopkeeper *models.Shopkeeper) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      shopkeeper.ID,
		"email":    shopkeeper.Email,
		"shopName": shopkeeper.ShopName,
		"exp":      now.Add(s.tokenDurat).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if sub, _ := claims["sub"].(string); sub == "" {
			return nil, fmt.Errorf("invalid token: missing subject")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
