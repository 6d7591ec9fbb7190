// Package validation turns raw client input into a normalized product input,
// collecting every field-level violation instead of stopping at the first.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
)

// RawInput is untyped input as decoded from a JSON body or an HTML form.
type RawInput map[string]interface{}

// Code identifies the kind of rule a field violated.
type Code string

const (
	CodeRequired      Code = "Required"
	CodeTooShort      Code = "TooShort"
	CodeTooLong       Code = "TooLong"
	CodeNotNumeric    Code = "NotNumeric"
	CodeNotInteger    Code = "NotInteger"
	CodeOutOfRange    Code = "OutOfRange"
	CodeInvalidEnum   Code = "InvalidEnum"
	CodeInvalidFormat Code = "InvalidFormat"
)

// FieldError is a single rule violation.
type FieldError struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

// Errors is the list of violations found in one input.
type Errors []FieldError

func (e Errors) Error() string {
	return strings.Join(e.Messages(), ", ")
}

// Messages returns the human readable message of every violation.
func (e Errors) Messages() []string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return msgs
}

// fieldOrder keeps reported errors in form order.
var fieldOrder = map[string]int{
	"name":        0,
	"price":       1,
	"description": 2,
	"category":    3,
	"inStock":     4,
	"quantity":    5,
	"tags":        6,
	"imageUrl":    7,
}

// Validator validates product input.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the product rules registered.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// The error is only returned for an empty tag or a nil func.
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	return &Validator{validate: v}
}

// Validate coerces raw into a ProductInput and checks it. Tags are normalized
// here and nowhere else. The returned error, if any, is of type Errors.
func (v *Validator) Validate(raw RawInput) (models.ProductInput, error) {
	var (
		in   models.ProductInput
		errs Errors
	)
	flagged := make(map[string]bool)
	add := func(field string, code Code, msg string) {
		flagged[field] = true
		errs = append(errs, FieldError{Field: field, Code: code, Message: msg})
	}

	if name, ok := text(raw["name"]); ok {
		in.Name = name
	} else {
		add("name", CodeInvalidFormat, "name must be text")
	}

	if price, code := number(raw["price"]); code != "" {
		add("price", code, "price must be a number")
	} else {
		in.Price = price
	}

	if desc, ok := text(raw["description"]); ok {
		in.Description = desc
	} else {
		add("description", CodeInvalidFormat, "description must be text")
	}

	if category, ok := text(raw["category"]); ok {
		in.Category = category
	} else {
		add("category", CodeInvalidEnum, "category is not a valid category")
	}

	if inStock, ok := boolean(raw["inStock"]); ok {
		in.InStock = inStock
	} else {
		add("inStock", CodeInvalidFormat, "inStock must be true or false")
	}

	if qty, code := integer(raw["quantity"]); code == CodeOutOfRange {
		add("quantity", code, fmt.Sprintf("quantity must be at most %d", math.MaxInt32))
	} else if code != "" {
		add("quantity", code, "quantity must be a whole number")
	} else {
		in.Quantity = qty
	}

	if tags, ok := tagsInput(raw["tags"]); ok {
		in.Tags = tags.Normalize()
	} else {
		add("tags", CodeInvalidFormat, "tags must be a string or a list of strings")
	}

	if imageURL, ok := text(raw["imageUrl"]); ok {
		in.ImageURL = imageURL
	} else {
		add("imageUrl", CodeInvalidFormat, "imageUrl must be text")
	}

	if err := v.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return models.ProductInput{}, fmt.Errorf("validate product input: %w", err)
		}
		for _, fe := range verrs {
			if flagged[fe.Field()] {
				continue
			}
			code, msg := describe(fe, in)
			add(fe.Field(), code, msg)
		}
	}

	if len(errs) > 0 {
		sort.SliceStable(errs, func(i, j int) bool {
			return fieldOrder[errs[i].Field] < fieldOrder[errs[j].Field]
		})
		return models.ProductInput{}, errs
	}
	return in, nil
}

func describe(fe validator.FieldError, in models.ProductInput) (Code, string) {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return CodeRequired, field + " is required"
	case "min":
		return CodeTooShort, fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return CodeTooLong, fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return CodeOutOfRange, fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "category":
		return CodeInvalidEnum, fmt.Sprintf("'%s' is not a valid category", in.Category)
	default:
		return CodeInvalidFormat, field + " is invalid"
	}
}

// text accepts strings and scalars, trimmed. Missing means empty.
func text(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(t), true
	case float64, int, int64, bool, json.Number:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}

func number(v interface{}) (*float64, Code) {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil, ""
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil, CodeNotNumeric
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, ""
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, CodeNotNumeric
		}
		f = parsed
	default:
		return nil, CodeNotNumeric
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, CodeNotNumeric
	}
	return &f, ""
}

func integer(v interface{}) (*int, Code) {
	switch t := v.(type) {
	case nil:
		return nil, ""
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, ""
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return nil, CodeOutOfRange
		}
		if err != nil {
			return nil, CodeNotInteger
		}
		return bounded(float64(n))
	case int:
		return bounded(float64(t))
	case int64:
		return bounded(float64(t))
	}

	f, code := number(v)
	if code != "" {
		return nil, CodeNotInteger
	}
	if *f != math.Trunc(*f) {
		return nil, CodeNotInteger
	}
	return bounded(*f)
}

// bounded rejects whole numbers that do not fit a stored quantity.
func bounded(f float64) (*int, Code) {
	if math.Abs(f) > math.MaxInt32 {
		return nil, CodeOutOfRange
	}
	n := int(f)
	return &n, ""
}

func boolean(v interface{}) (*bool, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case bool:
		return &t, true
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		switch s {
		case "":
			return nil, true
		case "on":
			b := true
			return &b, true
		case "off":
			b := false
			return &b, true
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, false
		}
		return &b, true
	default:
		return nil, false
	}
}

func tagsInput(v interface{}) (models.TagsInput, bool) {
	switch t := v.(type) {
	case nil:
		return models.TagsInput{}, true
	case string:
		return models.RawString(t), true
	case []string:
		return models.RawSequence(t), true
	case []interface{}:
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return models.TagsInput{}, false
			}
			items = append(items, s)
		}
		return models.RawSequence(items), true
	default:
		return models.TagsInput{}, false
	}
}
