package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/query"
	"catalog/internal/services"
	"catalog/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

const (
	flashTypeKey    = "flash_type"
	flashMessageKey = "flash_message"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Type    string
	Message string
}

type pageMeta struct {
	Title string
	Flash *Flash
}

type sortOption struct {
	Value string
	Label string
}

var sortOptions = []sortOption{
	{"createdAt", "Date added"},
	{"name", "Name"},
	{"price", "Price"},
	{"quantity", "Quantity"},
	{"category", "Category"},
}

type listPage struct {
	pageMeta
	Products    []models.Product
	Pagination  query.Pagination
	Filters     query.ListOptions
	Categories  []models.Category
	SortOptions []sortOption
	PrevURL     string
	NextURL     string
}

type showPage struct {
	pageMeta
	Product *models.Product
}

// formValues holds form fields as text so rejected input can be shown again.
type formValues struct {
	Name        string
	Price       string
	Description string
	Category    string
	Quantity    string
	InStock     bool
	Tags        string
	ImageURL    string
}

type formPage struct {
	pageMeta
	Action     string
	CancelURL  string
	Form       formValues
	Categories []models.Category
	Errors     []string
}

type errorPage struct {
	pageMeta
	Message string
}

// ProductPageHandler serves the HTML pages.
type ProductPageHandler struct {
	service  *services.ProductService
	sessions *session.Store
	log      *zap.Logger
}

// NewProductPageHandler creates a new ProductPageHandler.
func NewProductPageHandler(service *services.ProductService, sessions *session.Store, log *zap.Logger) *ProductPageHandler {
	return &ProductPageHandler{
		service:  service,
		sessions: sessions,
		log:      log,
	}
}

// RegisterRoutes registers the page routes with the Fiber app.
func (h *ProductPageHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/products")
	})

	pages := router.Group("/products")
	pages.Get("/", h.HandleList)
	pages.Get("/create", h.HandleCreateForm)
	pages.Post("/create", h.HandleCreate)
	pages.Get("/:id", h.HandleShow)
	pages.Get("/:id/edit", h.HandleEditForm)
	pages.Post("/:id/update", h.HandleUpdate)
	pages.Post("/:id/delete", h.HandleDelete)
}

// HandleList renders the filtered product list.
func (h *ProductPageHandler) HandleList(c *fiber.Ctx) error {
	opts := listOptions(c)
	list, err := h.service.GetAllProducts(c.UserContext(), opts)
	if err != nil {
		return h.renderError(c, err)
	}

	page := listPage{
		pageMeta:    pageMeta{Title: "Products", Flash: h.popFlash(c)},
		Products:    list.Products,
		Pagination:  list.Pagination,
		Filters:     opts,
		Categories:  models.Categories,
		SortOptions: sortOptions,
	}
	if list.Pagination.HasPrev() {
		page.PrevURL = pageURL(opts, list.Pagination.Page-1)
	}
	if list.Pagination.HasNext() {
		page.NextURL = pageURL(opts, list.Pagination.Page+1)
	}
	return c.Render("products/index", page)
}

// HandleShow renders a single product.
func (h *ProductPageHandler) HandleShow(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render("products/show", showPage{
		pageMeta: pageMeta{Title: product.Name, Flash: h.popFlash(c)},
		Product:  product,
	})
}

// HandleCreateForm renders an empty product form.
func (h *ProductPageHandler) HandleCreateForm(c *fiber.Ctx) error {
	return c.Render("products/form", formPage{
		pageMeta:   pageMeta{Title: "Add a product"},
		Action:     "/products/create",
		CancelURL:  "/products",
		Form:       formValues{Category: string(models.CategoryOther), InStock: true, Quantity: "0"},
		Categories: models.Categories,
	})
}

// HandleCreate stores a submitted product and redirects to it.
func (h *ProductPageHandler) HandleCreate(c *fiber.Ctx) error {
	raw := checkboxDefaults(formInput(c))
	product, err := h.service.CreateProduct(c.UserContext(), raw)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).Render("products/form", formPage{
				pageMeta:   pageMeta{Title: "Add a product"},
				Action:     "/products/create",
				CancelURL:  "/products",
				Form:       formFromInput(raw),
				Categories: models.Categories,
				Errors:     verr.Messages(),
			})
		}
		return h.renderError(c, err)
	}

	h.setFlash(c, "success", "Product created")
	return c.Redirect("/products/" + product.ID)
}

// HandleEditForm renders the form for an existing product.
func (h *ProductPageHandler) HandleEditForm(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render("products/form", formPage{
		pageMeta:   pageMeta{Title: "Edit " + product.Name},
		Action:     "/products/" + product.ID + "/update",
		CancelURL:  "/products/" + product.ID,
		Form:       formFromProduct(product),
		Categories: models.Categories,
	})
}

// HandleUpdate replaces a product with the submitted form and redirects to it.
func (h *ProductPageHandler) HandleUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	raw := checkboxDefaults(formInput(c))
	product, err := h.service.UpdateProduct(c.UserContext(), id, raw)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).Render("products/form", formPage{
				pageMeta:   pageMeta{Title: "Edit product"},
				Action:     "/products/" + id + "/update",
				CancelURL:  "/products/" + id,
				Form:       formFromInput(raw),
				Categories: models.Categories,
				Errors:     verr.Messages(),
			})
		}
		return h.renderError(c, err)
	}

	h.setFlash(c, "success", "Product updated")
	return c.Redirect("/products/" + product.ID)
}

// HandleDelete deletes a product and returns to the list with a flash message.
func (h *ProductPageHandler) HandleDelete(c *fiber.Ctx) error {
	_, err := h.service.DeleteProduct(c.UserContext(), c.Params("id"))
	switch {
	case err == nil:
		h.setFlash(c, "success", "Product deleted successfully")
	case errors.Is(err, services.ErrNotFound):
		h.setFlash(c, "error", "Product not found")
	case errors.Is(err, services.ErrInvalidID):
		h.setFlash(c, "error", "Invalid product ID")
	default:
		h.log.Error("Product delete failed", zap.String("request_id", logger.RequestID(c)), zap.Error(err))
		h.setFlash(c, "error", "Could not delete the product")
	}
	return c.Redirect("/products")
}

// renderError renders the error page. Unknown and malformed ids are both 404.
func (h *ProductPageHandler) renderError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrInvalidID) {
		return c.Status(fiber.StatusNotFound).Render("error", errorPage{
			pageMeta: pageMeta{Title: "Product not found"},
			Message:  "The product you are looking for does not exist.",
		})
	}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).Render("error", errorPage{
			pageMeta: pageMeta{Title: "Invalid request"},
			Message:  strings.Join(verr.Messages(), ", "),
		})
	}

	h.log.Error("Page request failed", zap.String("request_id", logger.RequestID(c)), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).Render("error", errorPage{
		pageMeta: pageMeta{Title: "Error"},
		Message:  "Something went wrong. Please try again later.",
	})
}

func (h *ProductPageHandler) setFlash(c *fiber.Ctx, kind, message string) {
	sess, err := h.sessions.Get(c)
	if err != nil {
		h.log.Warn("Session unavailable", zap.Error(err))
		return
	}
	sess.Set(flashTypeKey, kind)
	sess.Set(flashMessageKey, message)
	if err := sess.Save(); err != nil {
		h.log.Warn("Failed to save session", zap.Error(err))
	}
}

// popFlash returns the pending flash message and clears it.
func (h *ProductPageHandler) popFlash(c *fiber.Ctx) *Flash {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return nil
	}
	message, _ := sess.Get(flashMessageKey).(string)
	if message == "" {
		return nil
	}
	kind, _ := sess.Get(flashTypeKey).(string)
	sess.Delete(flashTypeKey)
	sess.Delete(flashMessageKey)
	if err := sess.Save(); err != nil {
		h.log.Warn("Failed to save session", zap.Error(err))
	}
	return &Flash{Type: kind, Message: message}
}

// checkboxDefaults treats an unchecked inStock box as false.
func checkboxDefaults(raw validation.RawInput) validation.RawInput {
	if _, ok := raw["inStock"]; !ok {
		raw["inStock"] = "false"
	}
	return raw
}

func formFromInput(raw validation.RawInput) formValues {
	str := func(key string) string {
		switch v := raw[key].(type) {
		case string:
			return v
		case []interface{}:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, ", ")
		case nil:
			return ""
		default:
			return fmt.Sprint(v)
		}
	}
	inStock, _ := strconv.ParseBool(str("inStock"))
	if str("inStock") == "on" {
		inStock = true
	}
	return formValues{
		Name:        str("name"),
		Price:       str("price"),
		Description: str("description"),
		Category:    str("category"),
		Quantity:    str("quantity"),
		InStock:     inStock,
		Tags:        str("tags"),
		ImageURL:    str("imageUrl"),
	}
}

func formFromProduct(p *models.Product) formValues {
	return formValues{
		Name:        p.Name,
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Description: p.Description,
		Category:    string(p.Category),
		Quantity:    strconv.Itoa(p.Quantity),
		InStock:     p.InStock,
		Tags:        strings.Join(p.Tags, ", "),
		ImageURL:    p.ImageURL,
	}
}

// pageURL links to another page of the same filtered list.
func pageURL(opts query.ListOptions, page int) string {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("limit", opts.Limit)
	set("sortBy", opts.SortBy)
	set("sortOrder", opts.SortOrder)
	set("category", opts.Category)
	set("inStock", opts.InStock)
	set("minPrice", opts.MinPrice)
	set("maxPrice", opts.MaxPrice)
	set("search", opts.Search)
	v.Set("page", strconv.Itoa(page))
	return "/products?" + v.Encode()
}
