package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"product-store/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrMissingID wraps the domain validation sentinel so callers can
	// treat an update of an unsaved product as a 400, not a 404.
	ErrMissingID = fmt.Errorf("%w: update requires a persisted product id", domain.ErrValidation)
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	All(ctx context.Context) ([]*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindByName(ctx context.Context, name string) ([]*domain.Product, error)
	FindByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error)
	FindByAvailability(ctx context.Context, available bool) ([]*domain.Product, error)
	FindByPrice(ctx context.Context, price decimal.Decimal) ([]*domain.Product, error)
	FindByPriceString(ctx context.Context, price string) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// selectColumns reads price back as text so the decimal scale survives
// the round trip through the driver.
const selectColumns = `id, name, description, price::text, available, category`

// Create inserts a new product and fills in its database-assigned id
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, price, available, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price.String(),
		product.Available,
		string(product.Category),
	).Scan(&product.ID)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update persists the product's current field values to its row.
// A product that was never created cannot be updated.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	if product.ID == 0 {
		return ErrMissingID
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, available = $5, category = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price.String(),
		product.Available,
		string(product.Category),
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes the row matching id. Deleting an absent row is not an
// error; existence checks belong to the caller.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

// All retrieves every product. Order is whatever the database gives us.
func (r *productRepository) All(ctx context.Context) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products`, selectColumns)
	return r.queryProducts(ctx, query)
}

// FindByID retrieves a product by id using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, selectColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByName retrieves all products with an exactly matching name
func (r *productRepository) FindByName(ctx context.Context, name string) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE name = $1`, selectColumns)
	return r.queryProducts(ctx, query, name)
}

// FindByCategory retrieves all products in the given category
func (r *productRepository) FindByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE category = $1`, selectColumns)
	return r.queryProducts(ctx, query, string(category))
}

// FindByAvailability retrieves all products by availability flag
func (r *productRepository) FindByAvailability(ctx context.Context, available bool) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE available = $1`, selectColumns)
	return r.queryProducts(ctx, query, available)
}

// FindByPrice retrieves all products with an exactly matching price
func (r *productRepository) FindByPrice(ctx context.Context, price decimal.Decimal) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE price = $1`, selectColumns)
	return r.queryProducts(ctx, query, price.String())
}

// FindByPriceString normalizes a textual price before filtering so
// FindByPriceString("19.99") and FindByPrice(19.99) agree. Surrounding
// whitespace and quotes are tolerated.
func (r *productRepository) FindByPriceString(ctx context.Context, price string) ([]*domain.Product, error) {
	cleaned := strings.Trim(strings.TrimSpace(price), `"'`)
	parsed, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: price %q is not a valid decimal", domain.ErrValidation, price)
	}
	return r.FindByPrice(ctx, parsed)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product  domain.Product
		price    string
		category string
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&price,
		&product.Available,
		&category,
	)
	if err != nil {
		return nil, err
	}

	product.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid price in row %d: %w", product.ID, err)
	}
	product.Category = domain.Category(category)

	return &product, nil
}
