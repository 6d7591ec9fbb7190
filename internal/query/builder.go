// Package query maps flat list options to a storage-neutral query descriptor.
package query

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage      = 1
	DefaultLimit     = 10
	DefaultSortField = "createdAt"
)

// SortableFields are the product fields a list can be ordered by.
var SortableFields = map[string]bool{
	"name":        true,
	"price":       true,
	"description": true,
	"category":    true,
	"inStock":     true,
	"quantity":    true,
	"imageUrl":    true,
	"createdAt":   true,
	"updatedAt":   true,
}

// ListOptions are list parameters as received from a request. Every field is
// optional.
type ListOptions struct {
	Page      string `json:"page,omitempty"`
	Limit     string `json:"limit,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
	Category  string `json:"category,omitempty"`
	InStock   string `json:"inStock,omitempty"`
	MinPrice  string `json:"minPrice,omitempty"`
	MaxPrice  string `json:"maxPrice,omitempty"`
	Search    string `json:"search,omitempty"`
}

// Filter selects products. Zero-valued fields add no predicate.
type Filter struct {
	Category string
	InStock  *bool
	MinPrice *float64
	MaxPrice *float64
	// Search is matched literally and case-insensitively against name and
	// description.
	Search string
}

// HasPriceRange reports whether the filter bounds the price.
func (f Filter) HasPriceRange() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

// Direction is a sort direction.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// Sort orders results by a single product field.
type Sort struct {
	Field     string
	Direction Direction
}

// Query is a complete list request: which products, in what order, which window.
type Query struct {
	Filter Filter
	Sort   Sort
	Page   int
	Skip   int
	// Limit of 0 means no limit.
	Limit int
}

// Build turns options into a Query. A positive maxLimit caps the page size.
func Build(opts ListOptions, maxLimit int) Query {
	page := positiveInt(opts.Page, DefaultPage)
	limit := positiveInt(opts.Limit, DefaultLimit)
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	return Query{
		Filter: BuildFilter(opts),
		Sort:   BuildSort(opts.SortBy, opts.SortOrder),
		Page:   page,
		Skip:   skipFor(page, limit),
		Limit:  limit,
	}
}

// skipFor saturates at math.MaxInt so a huge page number still lands past the end.
func skipFor(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// BuildFilter adds one predicate per option that is present.
func BuildFilter(opts ListOptions) Filter {
	var f Filter
	if opts.Category != "" {
		f.Category = opts.Category
	}
	// Only the literal "true" filters; "false" and anything else is ignored.
	if opts.InStock == "true" {
		inStock := true
		f.InStock = &inStock
	}
	if v, ok := parseFloat(opts.MinPrice); ok {
		f.MinPrice = &v
	}
	if v, ok := parseFloat(opts.MaxPrice); ok {
		f.MaxPrice = &v
	}
	if opts.Search != "" {
		f.Search = opts.Search
	}
	return f
}

// BuildSort returns the requested order, or newest first when none is given.
func BuildSort(sortBy, sortOrder string) Sort {
	if sortBy == "" || !SortableFields[sortBy] {
		return Sort{Field: DefaultSortField, Direction: Descending}
	}
	dir := Ascending
	if sortOrder == "desc" {
		dir = Descending
	}
	return Sort{Field: sortBy, Direction: dir}
}

// Pagination describes the window a list response covers.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	TotalItems int64 `json:"totalItems"`
}

// NewPagination computes the page count for totalItems matching items.
func NewPagination(page, limit int, totalItems int64) Pagination {
	p := Pagination{Page: page, Limit: limit, TotalItems: totalItems}
	if limit > 0 {
		p.TotalPages = int((totalItems + int64(limit) - 1) / int64(limit))
	}
	return p
}

// HasPrev reports whether a page precedes the current one.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a page follows the current one.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
