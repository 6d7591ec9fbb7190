package main

import (
	"errors"
	"strings"
	"time"

	"catalog/internal/config"
	"catalog/internal/handlers"
	"catalog/internal/logger"
	"catalog/internal/middleware"
	"catalog/internal/services"
	"catalog/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

// NewApp wires the HTTP surface: the JSON API under /api, the HTML pages and
// the health check.
func NewApp(cfg *config.Config, productService *services.ProductService, authService *services.AuthService, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "catalog",
		Views:        views.New(),
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{ContextKey: logger.RequestIDKey}))
	app.Use(logger.RequestLogger(log))
	app.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"time":    time.Now().Format(time.RFC3339),
			"storage": cfg.StorageDriver,
		})
	})

	api := app.Group("/api")
	guard := middleware.AuthRequired(authService, log)
	handlers.NewProductAPIHandler(productService, log).RegisterRoutes(api, guard)
	handlers.NewAuthHandler(authService, log).RegisterRoutes(api)

	sessions := session.New(session.Config{Expiration: cfg.SessionTTL})
	handlers.NewProductPageHandler(productService, sessions, log).RegisterRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
	return app
}

// errorHandler answers JSON under /api and renders the error page elsewhere.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("Unhandled error",
				zap.String("request_id", logger.RequestID(c)),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		if strings.HasPrefix(c.Path(), "/api") {
			return c.Status(code).JSON(fiber.Map{"error": message})
		}

		title := "Error"
		if code == fiber.StatusNotFound {
			title = "Page not found"
			message = "The page you are looking for does not exist."
		} else if code >= fiber.StatusInternalServerError {
			message = "Something went wrong. Please try again later."
		}
		c.Status(code)
		if renderErr := c.Render("error", fiber.Map{"Title": title, "Message": message}); renderErr != nil {
			return c.SendString(message)
		}
		return nil
	}
}
