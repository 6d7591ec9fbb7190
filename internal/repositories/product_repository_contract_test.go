package repositories_test

import (
	"context"
	"testing"

	"catalog/internal/models"
	"catalog/internal/query"
	"catalog/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(name string, price float64, category models.Category, qty int, tags ...string) *models.Product {
	if tags == nil {
		tags = []string{}
	}
	p := &models.Product{
		Name:     name,
		Price:    price,
		Category: category,
		InStock:  true,
		Quantity: qty,
		Tags:     tags,
		ImageURL: models.DefaultImageURL,
	}
	p.EnforceInvariants()
	return p
}

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

// testProductRepository runs the behaviour every ProductRepository shares.
func testProductRepository(t *testing.T, newRepo func(t *testing.T) repositories.ProductRepository, unknownID func() string) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t)
		p := newProduct("Desk Lamp", 19.99, models.CategoryElectronics, 3, "home", "light")
		p.Description = "warm light"

		require.NoError(t, repo.Create(ctx, p))
		require.NotEmpty(t, p.ID)
		assert.True(t, repo.ValidID(p.ID))
		assert.False(t, p.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Desk Lamp", got.Name)
		assert.Equal(t, 19.99, got.Price)
		assert.Equal(t, "warm light", got.Description)
		assert.Equal(t, models.CategoryElectronics, got.Category)
		assert.Equal(t, []string{"home", "light"}, got.Tags)
		assert.True(t, got.InStock)
		assert.Equal(t, 3, got.Quantity)
	})

	t.Run("GetByIDErrors", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, repositories.ErrInvalidID)

		_, err = repo.GetByID(ctx, unknownID())
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("FindAndCount", func(t *testing.T) {
		repo := newRepo(t)
		for _, p := range []*models.Product{
			newProduct("Blue Widget", 20, models.CategoryOther, 10),
			newProduct("Red Widget", 45, models.CategoryOther, 0),
			newProduct("Gadget", 75, models.CategoryElectronics, 2),
			newProduct("Widget 50% off", 5, models.CategoryOther, 1),
			newProduct("Widget 500", 500, models.CategoryOther, 1),
		} {
			require.NoError(t, repo.Create(ctx, p))
		}

		q := query.Build(query.ListOptions{MinPrice: "10", MaxPrice: "50", SortBy: "price"}, 0)
		found, err := repo.Find(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"Blue Widget", "Red Widget"}, names(found))

		n, err := repo.Count(ctx, q.Filter)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		q = query.Build(query.ListOptions{InStock: "true", SortBy: "price", SortOrder: "desc"}, 0)
		found, err = repo.Find(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"Widget 500", "Gadget", "Blue Widget", "Widget 50% off"}, names(found))

		q = query.Build(query.ListOptions{Search: "50%"}, 0)
		found, err = repo.Find(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"Widget 50% off"}, names(found), "search is matched literally")

		q = query.Build(query.ListOptions{Search: "WIDGET", SortBy: "price", Page: "2", Limit: "2"}, 0)
		found, err = repo.Find(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"Red Widget", "Widget 500"}, names(found))

		q = query.Build(query.ListOptions{Category: "Electronics"}, 0)
		n, err = repo.Count(ctx, q.Filter)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		q = query.Build(query.ListOptions{Page: "9"}, 0)
		found, err = repo.Find(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, found)

		q = query.Build(query.ListOptions{Page: "1000000000000000000", Limit: "10"}, 100)
		found, err = repo.Find(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, found)
		total, err := repo.Count(ctx, q.Filter)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
	})

	t.Run("CreateMany", func(t *testing.T) {
		repo := newRepo(t)
		batch := []*models.Product{
			newProduct("One", 1, models.CategoryBooks, 1),
			newProduct("Two", 2, models.CategoryBooks, 2),
		}
		require.NoError(t, repo.CreateMany(ctx, batch))
		for _, p := range batch {
			assert.True(t, repo.ValidID(p.ID))
		}

		n, err := repo.Count(ctx, query.Filter{Category: "Books"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("Update", func(t *testing.T) {
		repo := newRepo(t)
		p := newProduct("Chair", 40, models.CategoryOther, 4, "wood")
		require.NoError(t, repo.Create(ctx, p))
		created, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)

		changed := *created
		changed.Name = "Stool"
		changed.Quantity = 0
		changed.Tags = []string{}
		changed.EnforceInvariants()

		updated, err := repo.Update(ctx, &changed)
		require.NoError(t, err)
		assert.Equal(t, p.ID, updated.ID)
		assert.Equal(t, "Stool", updated.Name)
		assert.Equal(t, 0, updated.Quantity)
		assert.False(t, updated.InStock)
		assert.Empty(t, updated.Tags)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt), "createdAt is preserved")

		missing := changed
		missing.ID = unknownID()
		_, err = repo.Update(ctx, &missing)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		p := newProduct("Mug", 8, models.CategoryOther, 12)
		require.NoError(t, repo.Create(ctx, p))

		deleted, err := repo.Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mug", deleted.Name)

		_, err = repo.GetByID(ctx, p.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		_, err = repo.Delete(ctx, p.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		_, err = repo.Delete(ctx, "bogus")
		assert.ErrorIs(t, err, repositories.ErrInvalidID)
	})
}
