package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"
	"catalog/internal/query"
)

var (
	// ErrNotFound is returned when no product has the given id.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidID is returned when an id is not in the store's identifier format.
	ErrInvalidID = errors.New("invalid product id")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// ValidID reports whether id is in this store's identifier format.
	ValidID(id string) bool
	Create(ctx context.Context, product *models.Product) error
	// CreateMany stores every product or none of them.
	CreateMany(ctx context.Context, products []*models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Find(ctx context.Context, q query.Query) ([]models.Product, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
	// Update replaces every mutable field of the stored product and returns
	// the stored result. ID and CreatedAt are preserved.
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	// Delete removes the product and returns it as it was before removal.
	Delete(ctx context.Context, id string) (*models.Product, error)
	EnsureIndexes(ctx context.Context) error
}
