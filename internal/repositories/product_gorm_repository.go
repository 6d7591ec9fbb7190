package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/models"
	"catalog/internal/query"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns maps sortable product fields to their columns.
var sortColumns = map[string]string{
	"name":        "name",
	"price":       "price",
	"description": "description",
	"category":    "category",
	"inStock":     "in_stock",
	"quantity":    "quantity",
	"imageUrl":    "image_url",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// ValidID accepts UUIDs.
func (r *GORMProductRepository) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// CreateMany creates all products in one transaction.
func (r *GORMProductRepository) CreateMany(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(products).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create products: %w", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if !r.ValidID(id) {
		return nil, ErrInvalidID
	}
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Find retrieves the products selected by q.
func (r *GORMProductRepository) Find(ctx context.Context, q query.Query) ([]models.Product, error) {
	column, ok := sortColumns[q.Sort.Field]
	if !ok {
		column = "created_at"
	}
	desc := q.Sort.Direction == query.Descending

	tx := r.db.WithContext(ctx).
		Scopes(filterScope(q.Filter)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	products := []models.Product{}
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

// Count returns the number of products matching f.
func (r *GORMProductRepository) Count(ctx context.Context, f query.Filter) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(filterScope(f)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if !r.ValidID(product.ID) {
		return nil, ErrInvalidID
	}

	product.UpdatedAt = time.Now()
	var updated models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Select("*") writes zero values too; Save would insert a missing row.
		res := tx.Model(&models.Product{ID: product.ID}).
			Select("*").
			Omit("ID", "CreatedAt").
			Updates(product)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&updated, "id = ?", product.ID).Error
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &updated, nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) (*models.Product, error) {
	if !r.ValidID(id) {
		return nil, ErrInvalidID
	}

	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return &product, nil
}

// EnsureIndexes migrates the products table and its indexes.
func (r *GORMProductRepository) EnsureIndexes(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.Product{}); err != nil {
		return fmt.Errorf("failed to migrate products: %w", err)
	}
	return nil
}

func filterScope(f query.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Category != "" {
			db = db.Where("category = ?", f.Category)
		}
		if f.InStock != nil {
			db = db.Where("in_stock = ?", *f.InStock)
		}
		if f.MinPrice != nil {
			db = db.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			db = db.Where("price <= ?", *f.MaxPrice)
		}
		if f.Search != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
			db = db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
		}
		return db
	}
}
