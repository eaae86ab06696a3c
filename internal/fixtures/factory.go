// Package fixtures generates randomized products for tests.
package fixtures

import (
	"math/rand"

	"product-store/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var productNames = []string{
	"socks", "car", "headphones", "screwdriver", "headlight", "blender",
	"kettle", "blouse", "shirt", "apple", "banana", "pear",
}

// NewProduct returns an unsaved product with a name from a fixed pool,
// a unique description, a price between 5.00 and 50.00 at two decimal
// places, and random availability and category.
func NewProduct() *domain.Product {
	categories := domain.Categories()
	cents := 500 + rand.Int63n(4501)

	return &domain.Product{
		Name:        productNames[rand.Intn(len(productNames))],
		Description: "fixture " + uuid.NewString(),
		Price:       decimal.New(cents, -2),
		Available:   rand.Intn(2) == 0,
		Category:    categories[rand.Intn(len(categories))],
	}
}
