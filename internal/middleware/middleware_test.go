package middleware_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newGuardedApp(auth *services.AuthService) *fiber.App {
	app := fiber.New()
	app.Post("/write", middleware.AuthRequired(auth, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthRequired_DisabledPassesThrough(t *testing.T) {
	app := newGuardedApp(services.NewAuthService(services.AuthConfig{}))

	resp, err := app.Test(httptest.NewRequest("POST", "/write", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestAuthRequired_Enabled(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := services.NewAuthService(services.AuthConfig{
		Username:     "admin",
		PasswordHash: string(hash),
		JWTSecret:    "secret",
		TokenTTL:     time.Hour,
	})
	app := newGuardedApp(auth)

	resp, err := app.Test(httptest.NewRequest("POST", "/write", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("POST", "/write", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/write", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := auth.Login("admin", "pw")
	require.NoError(t, err)
	req = httptest.NewRequest("POST", "/write", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.RequestTimeout(time.Second), func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
