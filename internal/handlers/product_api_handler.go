package handlers

import (
	"context"
	"errors"

	"catalog/internal/logger"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductAPIHandler handles JSON requests for products.
type ProductAPIHandler struct {
	service *services.ProductService
	log     *zap.Logger
}

// NewProductAPIHandler creates a new ProductAPIHandler.
func NewProductAPIHandler(service *services.ProductService, log *zap.Logger) *ProductAPIHandler {
	return &ProductAPIHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the product routes. Write routes run behind guard.
func (h *ProductAPIHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/category/:category", h.HandleGetProductsByCategory)
	productRoutes.Get("/:id", h.validateID, h.HandleGetProductByID)
	productRoutes.Post("/", guard, h.HandleCreateProduct)
	productRoutes.Post("/bulk", guard, h.HandleCreateProducts)
	productRoutes.Put("/:id", guard, h.validateID, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", guard, h.validateID, h.HandleDeleteProduct)
}

func (h *ProductAPIHandler) validateID(c *fiber.Ctx) error {
	if !h.service.ValidID(c.Params("id")) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	return c.Next()
}

// HandleGetProducts lists products with filters, sorting and pagination.
func (h *ProductAPIHandler) HandleGetProducts(c *fiber.Ctx) error {
	list, err := h.service.GetAllProducts(c.UserContext(), listOptions(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(list)
}

// HandleGetProductsByCategory lists products of the category in the path.
func (h *ProductAPIHandler) HandleGetProductsByCategory(c *fiber.Ctx) error {
	list, err := h.service.GetProductsByCategory(c.UserContext(), c.Params("category"), listOptions(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(list)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductAPIHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductAPIHandler) HandleCreateProduct(c *fiber.Ctx) error {
	raw, err := rawInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	product, err := h.service.CreateProduct(c.UserContext(), raw)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleCreateProducts creates several products in one transaction.
func (h *ProductAPIHandler) HandleCreateProducts(c *fiber.Ctx) error {
	raws, err := rawInputs(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	products, err := h.service.CreateProducts(c.UserContext(), raws)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"products": products,
		"count":    len(products),
	})
}

// HandleUpdateProduct replaces an existing product.
func (h *ProductAPIHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	raw, err := rawInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), raw)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product.
func (h *ProductAPIHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	result, err := h.service.DeleteProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(result)
}

// writeError maps service errors to status codes.
func (h *ProductAPIHandler) writeError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"errors": verr.Messages(),
			"fields": verr.Fields,
		})
	case errors.Is(err, services.ErrInvalidID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "Request timed out"})
	}

	h.log.Error("Product request failed",
		zap.String("request_id", logger.RequestID(c)),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
