package query

import (
	"strings"

	"catalog/internal/models"
)

// Match evaluates the filter against a single product.
func (f Filter) Match(p models.Product) bool {
	if f.Category != "" && string(p.Category) != f.Category {
		return false
	}
	if f.InStock != nil && p.InStock != *f.InStock {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	return true
}

// Compare orders a before b (negative), after b (positive) or as equal (zero)
// according to the sort.
func (s Sort) Compare(a, b models.Product) int {
	var c int
	switch s.Field {
	case "name":
		c = strings.Compare(a.Name, b.Name)
	case "price":
		c = compareFloat(a.Price, b.Price)
	case "description":
		c = strings.Compare(a.Description, b.Description)
	case "category":
		c = strings.Compare(string(a.Category), string(b.Category))
	case "inStock":
		c = compareBool(a.InStock, b.InStock)
	case "quantity":
		c = a.Quantity - b.Quantity
	case "imageUrl":
		c = strings.Compare(a.ImageURL, b.ImageURL)
	case "updatedAt":
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if s.Direction == Descending {
		return -c
	}
	return c
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
