package models

import "strings"

// TagsKind tells which shape the tags arrived in.
type TagsKind int

const (
	TagsAbsent TagsKind = iota
	TagsRawString
	TagsRawSequence
)

// TagsInput holds tags as received at the boundary: either a single
// comma-delimited string or a sequence of strings.
type TagsInput struct {
	kind  TagsKind
	text  string
	items []string
}

// RawString wraps a comma-delimited tag string.
func RawString(s string) TagsInput {
	return TagsInput{kind: TagsRawString, text: s}
}

// RawSequence wraps an already split list of tags.
func RawSequence(items []string) TagsInput {
	return TagsInput{kind: TagsRawSequence, items: items}
}

// Kind returns the shape of the input.
func (t TagsInput) Kind() TagsKind {
	return t.kind
}

// Normalize converts both shapes to the same ordered list of trimmed,
// non-empty tags.
func (t TagsInput) Normalize() []string {
	var parts []string
	switch t.kind {
	case TagsRawString:
		parts = strings.Split(t.text, ",")
	case TagsRawSequence:
		parts = t.items
	}

	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ProductInput is a product as accepted from a client after shape coercion.
// Optional fields are pointers so that absence can be told apart from zero.
type ProductInput struct {
	Name        string   `json:"name" validate:"required,min=2"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Description string   `json:"description" validate:"max=1000"`
	Category    string   `json:"category" validate:"omitempty,category"`
	InStock     *bool    `json:"inStock"`
	Quantity    *int     `json:"quantity" validate:"omitnil,gte=0"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"imageUrl"`
}

// ToProduct builds the product to store, applying defaults and invariants.
// ID and timestamps are left to the storage layer.
func (in ProductInput) ToProduct() Product {
	p := Product{
		Name:        in.Name,
		Description: in.Description,
		Category:    Category(in.Category),
		InStock:     true,
		Tags:        in.Tags,
		ImageURL:    in.ImageURL,
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if p.Category == "" {
		p.Category = CategoryOther
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.ImageURL == "" {
		p.ImageURL = DefaultImageURL
	}
	p.EnforceInvariants()
	return p
}
