package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	productRepo := repositories.NewGORMProductRepository(db)
	require.NoError(t, productRepo.EnsureIndexes(context.Background()))

	log := zap.NewNop()
	productService := services.NewProductService(productRepo, nil, log, services.ProductServiceOptions{MaxPageSize: 100})
	authService := services.NewAuthService(services.AuthConfig{})

	app := fiber.New(fiber.Config{Views: views.New()})
	api := app.Group("/api")
	handlers.NewProductAPIHandler(productService, log).RegisterRoutes(api, middleware.AuthRequired(authService, log))
	handlers.NewAuthHandler(authService, log).RegisterRoutes(api)
	handlers.NewProductPageHandler(productService, session.New(session.Config{Expiration: time.Minute}), log).RegisterRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func doForm(t *testing.T, app *fiber.App, target string, form url.Values, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return send(t, app, req)
}

func doGet(t *testing.T, app *fiber.App, target string, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestProductAPI_CRUD(t *testing.T) {
	app := setupApp(t)

	resp, created := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name":     "Lamp",
		"price":    19.99,
		"quantity": 0,
		"tags":     "home, light",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, false, created["inStock"])
	assert.Equal(t, "Other", created["category"])
	assert.Equal(t, "19.99 €", created["formattedPrice"])
	assert.Equal(t, []interface{}{"home", "light"}, created["tags"])

	resp, got := doJSON(t, app, http.MethodGet, "/api/products/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lamp", got["name"])

	resp, list := doJSON(t, app, http.MethodGet, "/api/products?search=lam&minPrice=10&maxPrice=20", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, list["products"], 1)
	pagination, _ := list["pagination"].(map[string]interface{})
	assert.EqualValues(t, 1, pagination["totalItems"])
	assert.EqualValues(t, 1, pagination["totalPages"])

	resp, updated := doJSON(t, app, http.MethodPut, "/api/products/"+id, map[string]interface{}{
		"name":     "Desk Lamp",
		"price":    "24.50",
		"category": "Electronics",
		"quantity": 3,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Desk Lamp", updated["name"])
	assert.Equal(t, true, updated["inStock"])
	assert.Equal(t, true, updated["lowStock"])
	createdAt, err := time.Parse(time.RFC3339Nano, created["createdAt"].(string))
	require.NoError(t, err)
	keptAt, err := time.Parse(time.RFC3339Nano, updated["createdAt"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, createdAt, keptAt, time.Millisecond)

	resp, deleted := doJSON(t, app, http.MethodDelete, "/api/products/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Product deleted successfully", deleted["message"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProductAPI_Errors(t *testing.T) {
	app := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name":     "A",
		"price":    "abc",
		"category": "InvalidCategory",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["errors"], "'InvalidCategory' is not a valid category")
	assert.Len(t, body["errors"], 3)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/not-an-id", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/products/not-an-id", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/"+uuid.New().String(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/products/"+uuid.New().String(), map[string]interface{}{"name": "Chair", "price": 1})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/category/Toys", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/token", map[string]string{"username": "admin", "password": "pw"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "token endpoint is off without a secret")
}

func TestProductAPI_BulkCreate(t *testing.T) {
	app := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/products/bulk", []map[string]interface{}{
		{"name": "Novel", "price": 9, "category": "Books", "quantity": 2},
		{"name": "Atlas", "price": 30, "category": "Books", "quantity": 1},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 2, body["count"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/products/bulk", []map[string]interface{}{
		{"name": "Cable", "price": 5, "category": "Electronics"},
		{"name": "X", "price": 5},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Len(t, body["errors"], 1)

	resp, list := doJSON(t, app, http.MethodGet, "/api/products/category/Books?sortBy=name", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	products, _ := list["products"].([]interface{})
	require.Len(t, products, 2)
	assert.Equal(t, "Atlas", products[0].(map[string]interface{})["name"])

	resp, list = doJSON(t, app, http.MethodGet, "/api/products", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	pagination, _ := list["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pagination["totalItems"], "a rejected batch stores nothing")
}

func TestProductPages_CreateShowEditDelete(t *testing.T) {
	app := setupApp(t)

	resp, body := doGet(t, app, "/products/create")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/products/create"`)

	resp, _ = doForm(t, app, "/products/create", url.Values{
		"name":     {"Lamp"},
		"price":    {"19.99"},
		"category": {"Electronics"},
		"quantity": {"3"},
		"inStock":  {"true"},
		"tags":     {"home, light"},
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/products/"))

	resp, body = doGet(t, app, location)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Lamp")
	assert.Contains(t, body, "19.99 €")
	assert.Contains(t, body, "home, light")

	resp, body = doGet(t, app, location+"/edit")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="Lamp"`)

	// Unchecked inStock box.
	resp, _ = doForm(t, app, location+"/update", url.Values{
		"name":     {"Lamp"},
		"price":    {"19.99"},
		"quantity": {"3"},
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	_, product := doJSON(t, app, http.MethodGet, "/api"+location, nil)
	assert.Equal(t, false, product["inStock"])

	resp, _ = doForm(t, app, location+"/delete", url.Values{})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/products", resp.Header.Get("Location"))

	resp, body = doGet(t, app, "/products", resp.Cookies()...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Product deleted successfully")
	assert.Contains(t, body, "No products found.")

	resp, _ = doGet(t, app, location)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProductPages_ValidationRerendersForm(t *testing.T) {
	app := setupApp(t)

	resp, body := doForm(t, app, "/products/create", url.Values{
		"name":     {"Lamp"},
		"price":    {"cheap"},
		"category": {"InvalidCategory"},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "price must be a number")
	assert.Contains(t, body, `value="Lamp"`)
	assert.Contains(t, body, `value="cheap"`)
}

func TestProductPages_NotFound(t *testing.T) {
	app := setupApp(t)

	resp, body := doGet(t, app, "/products/not-an-id")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Product not found")

	resp, _ = doGet(t, app, "/products/"+uuid.New().String()+"/edit")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doForm(t, app, "/products/not-an-id/delete", url.Values{})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestProductPages_ListPaginates(t *testing.T) {
	app := setupApp(t)
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{"name": name, "price": 1, "quantity": 1})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, body := doGet(t, app, "/products?limit=2&sortBy=name&sortOrder=asc")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Alpha")
	assert.NotContains(t, body, "Charlie")
	assert.Contains(t, body, "Page 1 of 2")
	assert.Contains(t, body, "page=2")
}
