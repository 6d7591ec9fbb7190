package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"catalog/internal/query"
	"catalog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

var errEmptyBody = errors.New("request body is empty")

// listOptions reads the list parameters from the query string.
func listOptions(c *fiber.Ctx) query.ListOptions {
	return query.ListOptions{
		Page:      c.Query("page"),
		Limit:     c.Query("limit"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Category:  c.Query("category"),
		InStock:   c.Query("inStock"),
		MinPrice:  c.Query("minPrice"),
		MaxPrice:  c.Query("maxPrice"),
		Search:    c.Query("search"),
	}
}

func isJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(string(c.Request().Header.ContentType())), fiber.MIMEApplicationJSON)
}

// rawInput decodes a JSON object or a url-encoded form into untyped input.
func rawInput(c *fiber.Ctx) (validation.RawInput, error) {
	if isJSON(c) {
		body := c.Body()
		if len(body) == 0 {
			return nil, errEmptyBody
		}
		var raw validation.RawInput
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, err
		}
		if raw == nil {
			raw = validation.RawInput{}
		}
		return raw, nil
	}
	return formInput(c), nil
}

// formInput collects form fields. Repeated fields become lists.
func formInput(c *fiber.Ctx) validation.RawInput {
	raw := validation.RawInput{}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		k, v := string(key), string(value)
		switch prev := raw[k].(type) {
		case nil:
			raw[k] = v
		case string:
			raw[k] = []interface{}{prev, v}
		case []interface{}:
			raw[k] = append(prev, v)
		}
	})
	return raw
}

// rawInputs decodes a JSON array of objects, or an object with a products array.
func rawInputs(c *fiber.Ctx) ([]validation.RawInput, error) {
	body := c.Body()
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	var list []validation.RawInput
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Products []validation.RawInput `json:"products"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Products, nil
}
