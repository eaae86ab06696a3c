package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrValidation is the sentinel for malformed or incomplete product data.
// Callers use errors.Is to map it to a 400 response.
var ErrValidation = errors.New("invalid product data")

// Category is the closed set of product categories. Values are stored
// and serialized as their upper-case names.
type Category string

const (
	CategoryUnknown    Category = "UNKNOWN"
	CategoryCloths     Category = "CLOTHS"
	CategoryFood       Category = "FOOD"
	CategoryHousewares Category = "HOUSEWARES"
	CategoryAutomotive Category = "AUTOMOTIVE"
	CategoryTools      Category = "TOOLS"
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{
		CategoryUnknown,
		CategoryCloths,
		CategoryFood,
		CategoryHousewares,
		CategoryAutomotive,
		CategoryTools,
	}
}

// ParseCategory maps a name onto a known category.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, name)
}

// Product represents one row of the product catalog. An ID of zero
// means the product has not been persisted yet; the database assigns
// the ID on create and it never changes afterwards.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name" validate:"required"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Available   bool            `json:"available" db:"available"`
	Category    Category        `json:"category" db:"category" validate:"required"`
}

func (p *Product) String() string {
	if p.ID == 0 {
		return fmt.Sprintf("<Product %s id=[unsaved]>", p.Name)
	}
	return fmt.Sprintf("<Product %s id=[%d]>", p.Name, p.ID)
}

// Serialize converts the product into its flat wire representation.
// Price goes out as decimal text and category as its name. An unsaved
// product serializes its id as null.
func (p *Product) Serialize() map[string]any {
	var id any
	if p.ID != 0 {
		id = p.ID
	}
	return map[string]any{
		"id":          id,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.String(),
		"available":   p.Available,
		"category":    string(p.Category),
	}
}

// Deserialize populates the product from a flat key-value payload.
// Required keys are name, price, available and category; description
// is optional and id, when present, must be an integer. Every failure
// wraps ErrValidation.
func (p *Product) Deserialize(data map[string]any) error {
	if data == nil {
		return fmt.Errorf("%w: payload is not a JSON object", ErrValidation)
	}

	name, err := requireString(data, "name")
	if err != nil {
		return err
	}

	description := ""
	if raw, ok := data["description"]; ok && raw != nil {
		description, ok = raw.(string)
		if !ok {
			return fmt.Errorf("%w: field description must be a string", ErrValidation)
		}
	}

	rawPrice, ok := data["price"]
	if !ok {
		return fmt.Errorf("%w: missing required field price", ErrValidation)
	}
	price, err := ParsePrice(rawPrice)
	if err != nil {
		return err
	}

	rawAvailable, ok := data["available"]
	if !ok {
		return fmt.Errorf("%w: missing required field available", ErrValidation)
	}
	available, ok := rawAvailable.(bool)
	if !ok {
		return fmt.Errorf("%w: field available must be a boolean, got %T", ErrValidation, rawAvailable)
	}

	rawCategory, err := requireString(data, "category")
	if err != nil {
		return err
	}
	category, err := ParseCategory(rawCategory)
	if err != nil {
		return err
	}

	if raw, ok := data["id"]; ok && raw != nil {
		id, err := toInt64(raw)
		if err != nil {
			return fmt.Errorf("%w: field id must be an integer", ErrValidation)
		}
		p.ID = id
	}

	p.Name = name
	p.Description = description
	p.Price = price
	p.Available = available
	p.Category = category
	return nil
}

// ParsePrice normalizes the wire representation of a price. JSON
// numbers and decimal strings are both accepted.
func ParsePrice(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case string:
		price, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: price %q is not a valid decimal", ErrValidation, v)
		}
		return price, nil
	case json.Number:
		price, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: price %q is not a valid decimal", ErrValidation, v.String())
		}
		return price, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: price must be a number or decimal string, got %T", ErrValidation, raw)
	}
}

func requireString(data map[string]any, key string) (string, error) {
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%w: missing required field %s", ErrValidation, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %s must be a string", ErrValidation, key)
	}
	return s, nil
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		return v.Int64()
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("unsupported id type %T", raw)
	}
}
