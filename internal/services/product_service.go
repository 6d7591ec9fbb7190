package services

import (
	"context"
	"errors"
	"fmt"

	"catalog/internal/models"
	"catalog/internal/query"
	"catalog/internal/repositories"
	"catalog/internal/validation"

	"go.uber.org/zap"
)

// ProductServiceOptions tunes a ProductService.
type ProductServiceOptions struct {
	// MaxPageSize caps the page size of list requests. Zero disables the cap.
	MaxPageSize int
}

// ProductList is one page of products.
type ProductList struct {
	Products   []models.Product `json:"products"`
	Pagination query.Pagination `json:"pagination"`
}

// DeleteResult reports a completed deletion.
type DeleteResult struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo        repositories.ProductRepository
	validator   *validation.Validator
	events      EventPublisher
	log         *zap.Logger
	maxPageSize int
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, events EventPublisher, log *zap.Logger, opts ProductServiceOptions) *ProductService {
	if events == nil {
		events = NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		repo:        repo,
		validator:   validation.New(),
		events:      events,
		log:         log,
		maxPageSize: opts.MaxPageSize,
	}
}

// ValidID reports whether id has the shape the configured store uses.
func (s *ProductService) ValidID(id string) bool {
	return s.repo.ValidID(id)
}

// CreateProduct validates raw, applies defaults and stores the product.
func (s *ProductService) CreateProduct(ctx context.Context, raw validation.RawInput) (*models.Product, error) {
	in, err := s.validator.Validate(raw)
	if err != nil {
		return nil, validationError(err)
	}

	product := in.ToProduct()
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, s.fail("create", err)
	}

	s.log.Info("Product saved", zap.String("id", product.ID), zap.String("name", product.Name))
	s.publish(ctx, EventProductCreated, product)
	return &product, nil
}

// CreateProducts validates every input and stores them all or none.
func (s *ProductService) CreateProducts(ctx context.Context, raws []validation.RawInput) ([]models.Product, error) {
	if len(raws) == 0 {
		return nil, &ValidationError{Fields: validation.Errors{{
			Field:   "products",
			Code:    validation.CodeRequired,
			Message: "at least one product is required",
		}}}
	}

	var fieldErrs validation.Errors
	products := make([]*models.Product, 0, len(raws))
	for i, raw := range raws {
		in, err := s.validator.Validate(raw)
		if err != nil {
			var errs validation.Errors
			if !errors.As(err, &errs) {
				return nil, err
			}
			for _, fe := range errs {
				fieldErrs = append(fieldErrs, validation.FieldError{
					Field:   fmt.Sprintf("[%d].%s", i, fe.Field),
					Code:    fe.Code,
					Message: fmt.Sprintf("item %d: %s", i, fe.Message),
				})
			}
			continue
		}
		p := in.ToProduct()
		products = append(products, &p)
	}
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	if err := s.repo.CreateMany(ctx, products); err != nil {
		return nil, s.fail("bulk create", err)
	}

	created := make([]models.Product, 0, len(products))
	for _, p := range products {
		created = append(created, *p)
		s.publish(ctx, EventProductCreated, *p)
	}
	s.log.Info("Products saved", zap.Int("count", len(created)))
	return created, nil
}

// GetAllProducts returns one page of products matching opts.
func (s *ProductService) GetAllProducts(ctx context.Context, opts query.ListOptions) (*ProductList, error) {
	q := query.Build(opts, s.maxPageSize)

	products, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, s.fail("find", err)
	}
	// Count runs separately from Find; concurrent writes can make them disagree.
	total, err := s.repo.Count(ctx, q.Filter)
	if err != nil {
		return nil, s.fail("count", err)
	}

	if products == nil {
		products = []models.Product{}
	}
	return &ProductList{
		Products:   products,
		Pagination: query.NewPagination(q.Page, q.Limit, total),
	}, nil
}

// GetProductsByCategory lists products of one category.
func (s *ProductService) GetProductsByCategory(ctx context.Context, category string, opts query.ListOptions) (*ProductList, error) {
	if !models.Category(category).Valid() {
		return nil, &ValidationError{Fields: validation.Errors{{
			Field:   "category",
			Code:    validation.CodeInvalidEnum,
			Message: fmt.Sprintf("'%s' is not a valid category", category),
		}}}
	}
	opts.Category = category
	return s.GetAllProducts(ctx, opts)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	if !s.repo.ValidID(id) {
		return nil, ErrInvalidID
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("get", err)
	}
	return product, nil
}

// UpdateProduct replaces every mutable field of a product with the validated
// input. The stored record is untouched when validation fails.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, raw validation.RawInput) (*models.Product, error) {
	if !s.repo.ValidID(id) {
		return nil, ErrInvalidID
	}
	in, err := s.validator.Validate(raw)
	if err != nil {
		return nil, validationError(err)
	}

	product := in.ToProduct()
	product.ID = id
	updated, err := s.repo.Update(ctx, &product)
	if err != nil {
		return nil, s.fail("update", err)
	}

	s.log.Info("Product updated", zap.String("id", updated.ID))
	s.publish(ctx, EventProductUpdated, *updated)
	return updated, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*DeleteResult, error) {
	if !s.repo.ValidID(id) {
		return nil, ErrInvalidID
	}
	product, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, s.fail("delete", err)
	}

	s.log.Info("Product deleted", zap.String("id", product.ID))
	s.publish(ctx, EventProductDeleted, *product)
	return &DeleteResult{Message: "Product deleted successfully", Product: product}, nil
}

func (s *ProductService) fail(op string, err error) error {
	err = storageError(op, err)
	var se *StorageError
	if errors.As(err, &se) {
		s.log.Error("Storage operation failed", zap.String("op", op), zap.Error(se.Err))
	}
	return err
}

// publish never fails the caller; the change is already stored.
func (s *ProductService) publish(ctx context.Context, eventType string, payload interface{}) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.log.Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
