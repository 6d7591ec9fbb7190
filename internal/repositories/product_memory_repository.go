package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"catalog/internal/models"
	"catalog/internal/query"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[string]models.Product
	order    []string
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
		now:      time.Now,
	}
}

// WithClock replaces the time source used for timestamps.
func (r *MemoryProductRepository) WithClock(now func() time.Time) *MemoryProductRepository {
	r.now = now
	return r
}

// ValidID accepts UUIDs.
func (r *MemoryProductRepository) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insert(product)
	return nil
}

// CreateMany adds all products under a single lock.
func (r *MemoryProductRepository) CreateMany(_ context.Context, products []*models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range products {
		r.insert(p)
	}
	return nil
}

func (r *MemoryProductRepository) insert(product *models.Product) {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := r.now()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.Tags = append([]string{}, product.Tags...)

	r.products[product.ID] = *product
	r.order = append(r.order, product.ID)
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	if !r.ValidID(id) {
		return nil, ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

// Find returns the matching products in query order, windowed by skip and limit.
func (r *MemoryProductRepository) Find(_ context.Context, q query.Query) ([]models.Product, error) {
	r.mu.RLock()
	matched := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		if p := r.products[id]; q.Filter.Match(p) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	// Stable keeps insertion order between equal keys.
	sort.SliceStable(matched, func(i, j int) bool {
		return q.Sort.Compare(matched[i], matched[j]) < 0
	})

	if q.Skip < 0 {
		q.Skip = 0
	}
	if q.Skip >= len(matched) {
		return []models.Product{}, nil
	}
	matched = matched[q.Skip:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// Count returns the number of products matching f.
func (r *MemoryProductRepository) Count(_ context.Context, f query.Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if f.Match(p) {
			n++
		}
	}
	return n, nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) (*models.Product, error) {
	if !r.ValidID(product.ID) {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return nil, ErrNotFound
	}
	updated := *product
	updated.Tags = append([]string{}, product.Tags...)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.now()
	r.products[product.ID] = updated
	return &updated, nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id string) (*models.Product, error) {
	if !r.ValidID(id) {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.products, id)
	for i, known := range r.order {
		if known == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return &product, nil
}

// EnsureIndexes is a no-op.
func (r *MemoryProductRepository) EnsureIndexes(context.Context) error {
	return nil
}
