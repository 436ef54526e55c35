package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"stockswap/internal/config"
	"stockswap/internal/database"
	"stockswap/internal/handlers"
	"stockswap/internal/middleware"
	"stockswap/internal/models"
	"stockswap/internal/repositories"
	"stockswap/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp builds a Fiber app over a fresh in-memory SQLite database.
func setupApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + uuid.New().String() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	store := repositories.NewGORMStore(db)
	authService := services.NewAuthService(store.Shopkeepers(), "test_jwt_secret", 0)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewShopkeeperHandler(services.NewShopkeeperService(store.Shopkeepers())).RegisterRoutes(protected)
	handlers.NewProductHandler(services.NewProductService(store.Products(), store.ExportRequests())).RegisterRoutes(protected)
	handlers.NewExportRequestHandler(services.NewExportRequestService(store, nil)).RegisterRoutes(protected)

	return app, authService
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// call sends a JSON request and decodes the response into out when out is non-nil.
func call(t *testing.T, app *fiber.App, method, path, token string, body, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type shop struct {
	ID    string
	Token string
}

func register(t *testing.T, app *fiber.App, email, shopName string) shop {
	t.Helper()
	var resp services.AuthResponse
	status := call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
		"name":     "Owner of " + shopName,
		"shopName": shopName,
		"address":  "1 Market Street",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.AccessToken)
	return shop{ID: resp.Shopkeeper.ID, Token: resp.AccessToken}
}

func createProduct(t *testing.T, app *fiber.App, owner shop, name string, quantity int) models.Product {
	t.Helper()
	var product models.Product
	status := call(t, app, http.MethodPost, "/api/v1/products", owner.Token, map[string]interface{}{
		"name":     name,
		"price":    "2.50",
		"quantity": quantity,
		"category": "hardware",
	}, &product)
	require.Equal(t, http.StatusCreated, status)
	return product
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, authService := setupApp(t)

	a := register(t, app, "test@example.com", "Alpha")

	// duplicate email
	status := call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "test@example.com", "password": "password123",
		"name": "x", "shopName": "y", "address": "z",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)

	var loginResp services.AuthResponse
	status = call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "test@example.com", "password": "password123",
	}, &loginResp)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, loginResp.AccessToken)

	claims, err := authService.ValidateToken(loginResp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID, claims["sub"])
	assert.Equal(t, "test@example.com", claims["email"])

	status = call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "test@example.com", "password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var validation map[string]interface{}
	status = call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "not-an-email"}, &validation)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", validation["message"])
	assert.Contains(t, validation["errors"], "email")
}

func TestProductEndpoints(t *testing.T) {
	app, _ := setupApp(t)
	a := register(t, app, "a@example.com", "Alpha")
	b := register(t, app, "b@example.com", "Beta")

	created := createProduct(t, app, a, "Smartphone", 50)
	assert.Equal(t, a.ID, created.ShopkeeperID)
	require.NotNil(t, created.AvailableQuantity)
	assert.Equal(t, 50, *created.AvailableQuantity)
	assert.Equal(t, "2.5", created.Price.String())

	var list models.Page[models.Product]
	status := call(t, app, http.MethodGet, "/api/v1/products?page=1&limit=5", b.Token, nil, &list)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, 5, list.Limit)

	status = call(t, app, http.MethodGet, "/api/v1/products?limit=1000", b.Token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var search models.Page[models.Product]
	status = call(t, app, http.MethodGet, "/api/v1/products/search?q=SMART", b.Token, nil, &search)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, search.Data, 1)

	// only the owner may change it
	status = call(t, app, http.MethodPatch, "/api/v1/products/"+created.ID, b.Token, map[string]interface{}{"quantity": 1}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var updated models.Product
	status = call(t, app, http.MethodPatch, "/api/v1/products/"+created.ID, a.Token, map[string]interface{}{"name": "Smartphone Pro", "quantity": 45}, &updated)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Smartphone Pro", updated.Name)
	assert.Equal(t, 45, updated.Quantity)

	status = call(t, app, http.MethodPost, "/api/v1/products", a.Token, map[string]interface{}{
		"name": "Bad price", "price": "1.005", "quantity": 1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = call(t, app, http.MethodDelete, "/api/v1/products/"+created.ID, b.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var deleteResp map[string]string
	status = call(t, app, http.MethodDelete, "/api/v1/products/"+created.ID, a.Token, nil, &deleteResp)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, deleteResp["message"], "deleted successfully")

	status = call(t, app, http.MethodGet, "/api/v1/products/"+created.ID, a.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestShopkeeperEndpoints(t *testing.T) {
	app, _ := setupApp(t)
	a := register(t, app, "a@example.com", "Alpha")
	register(t, app, "b@example.com", "Beta")

	var me models.Shopkeeper
	status := call(t, app, http.MethodPatch, "/api/v1/shopkeepers/me", a.Token, map[string]string{"shopName": "Alpha Deli"}, &me)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Alpha Deli", me.ShopName)
	assert.Equal(t, "a@example.com", me.Email)

	var shops models.Page[models.ShopSummary]
	status = call(t, app, http.MethodGet, "/api/v1/shopkeepers", a.Token, nil, &shops)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, shops.Data, 2)
	assert.Equal(t, "Alpha Deli", shops.Data[0].ShopName)

	var raw map[string]interface{}
	status = call(t, app, http.MethodGet, "/api/v1/shopkeepers/"+a.ID, a.Token, nil, &raw)
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, raw, "email")
	assert.NotContains(t, raw, "password")

	status = call(t, app, http.MethodGet, "/api/v1/shopkeepers/"+uuid.New().String(), a.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestExportRequestFlow(t *testing.T) {
	app, _ := setupApp(t)
	a := register(t, app, "a@example.com", "Alpha")
	b := register(t, app, "b@example.com", "Beta")
	widget := createProduct(t, app, a, "Widget", 10)

	// B asks A for 4 widgets
	var req models.ExportRequest
	status := call(t, app, http.MethodPost, "/api/v1/export-requests", b.Token, map[string]interface{}{
		"productId": widget.ID,
		"toShopId":  a.ID,
		"quantity":  4,
		"message":   "need stock",
	}, &req)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.ExportStatusPending, req.Status)
	require.NotNil(t, req.Product)
	assert.Equal(t, "Widget", req.Product.Name)
	require.NotNil(t, req.FromShop)
	assert.Equal(t, "Beta", req.FromShop.ShopName)

	var product models.Product
	call(t, app, http.MethodGet, "/api/v1/products/"+widget.ID, b.Token, nil, &product)
	assert.Equal(t, 10, product.Quantity)
	require.NotNil(t, product.AvailableQuantity)
	assert.Equal(t, 6, *product.AvailableQuantity)

	// duplicate pending request
	status = call(t, app, http.MethodPost, "/api/v1/export-requests", b.Token, map[string]interface{}{
		"productId": widget.ID, "toShopId": a.ID, "quantity": 1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var received models.Page[models.ExportRequest]
	status = call(t, app, http.MethodGet, "/api/v1/export-requests/received", a.Token, nil, &received)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, received.Total)

	// only the addressee may accept
	status = call(t, app, http.MethodPatch, "/api/v1/export-requests/"+req.ID+"/accept", b.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var accepted models.ExportRequest
	status = call(t, app, http.MethodPatch, "/api/v1/export-requests/"+req.ID+"/accept", a.Token, map[string]string{"message": "on its way"}, &accepted)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.ExportStatusAccepted, accepted.Status)
	assert.Equal(t, "on its way", accepted.Message)

	call(t, app, http.MethodGet, "/api/v1/products/"+widget.ID, a.Token, nil, &product)
	assert.Equal(t, 6, product.Quantity)
	assert.Equal(t, 6, *product.AvailableQuantity)

	var mine models.Page[models.Product]
	call(t, app, http.MethodGet, "/api/v1/products/my-products", b.Token, nil, &mine)
	require.Len(t, mine.Data, 1)
	assert.Equal(t, "Widget", mine.Data[0].Name)
	assert.Equal(t, 4, mine.Data[0].Quantity)

	status = call(t, app, http.MethodPatch, "/api/v1/export-requests/"+req.ID+"/accept", a.Token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// A sends 2 of its own to B, B rejects: nothing moves
	var sent models.ExportRequest
	status = call(t, app, http.MethodPost, "/api/v1/export-requests", a.Token, map[string]interface{}{
		"productId": widget.ID, "toShopId": b.ID, "quantity": 2,
	}, &sent)
	require.Equal(t, http.StatusCreated, status)

	var rejected models.ExportRequest
	status = call(t, app, http.MethodPatch, "/api/v1/export-requests/"+sent.ID+"/reject", b.Token, nil, &rejected)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.ExportStatusRejected, rejected.Status)
	call(t, app, http.MethodGet, "/api/v1/products/"+widget.ID, a.Token, nil, &product)
	assert.Equal(t, 6, product.Quantity)

	var byStatus models.Page[models.ExportRequest]
	status = call(t, app, http.MethodGet, "/api/v1/export-requests/status/rejected", b.Token, nil, &byStatus)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, byStatus.Total)

	// cancel removes the request
	var cancelled models.ExportRequest
	status = call(t, app, http.MethodPost, "/api/v1/export-requests", a.Token, map[string]interface{}{
		"productId": widget.ID, "toShopId": b.ID, "quantity": 1,
	}, &cancelled)
	require.Equal(t, http.StatusCreated, status)
	status = call(t, app, http.MethodPatch, "/api/v1/export-requests/"+cancelled.ID+"/cancel", b.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status = call(t, app, http.MethodPatch, "/api/v1/export-requests/"+cancelled.ID+"/cancel", a.Token, nil, nil)
	assert.Equal(t, http.StatusOK, status)
	status = call(t, app, http.MethodGet, "/api/v1/export-requests/"+cancelled.ID, a.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// self-export
	status = call(t, app, http.MethodPost, "/api/v1/export-requests", a.Token, map[string]interface{}{
		"productId": widget.ID, "toShopId": a.ID, "quantity": 1,
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// outsiders cannot read a request
	c := register(t, app, "c@example.com", "Gamma")
	status = call(t, app, http.MethodGet, "/api/v1/export-requests/"+req.ID, c.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status = call(t, app, http.MethodGet, "/api/v1/export-requests/product/"+widget.ID, c.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
}
