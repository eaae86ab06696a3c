package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"testing"
	"time"

	"product-store/internal/domain"
	"product-store/internal/fixtures"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	// Same shape as migrations/00001_create_products_table.sql
	_, err = testDB.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			description TEXT,
			price NUMERIC(10, 2) NOT NULL,
			available BOOLEAN NOT NULL,
			category VARCHAR(20) NOT NULL,
			CONSTRAINT chk_products_category CHECK (
				category IN ('UNKNOWN', 'CLOTHS', 'FOOD', 'HOUSEWARES', 'AUTOMOTIVE', 'TOOLS')
			)
		)
	`)
	if err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

func truncateProducts(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec("TRUNCATE TABLE products RESTART IDENTITY")
	require.NoError(t, err)
}

func TestCreateAssignsID(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := fixtures.NewProduct()
	require.Equal(t, int64(0), product.ID)

	require.NoError(t, repo.Create(ctx, product))
	assert.NotZero(t, product.ID)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, product.ID, all[0].ID)
	assert.Equal(t, product.Name, all[0].Name)
	assert.Equal(t, product.Description, all[0].Description)
	assert.True(t, all[0].Price.Equal(product.Price))
	assert.Equal(t, product.Available, all[0].Available)
	assert.Equal(t, product.Category, all[0].Category)
}

func TestFindByID(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := fixtures.NewProduct()
	require.NoError(t, repo.Create(ctx, product))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)
	assert.Equal(t, product.Name, found.Name)
	assert.True(t, found.Price.Equal(product.Price))

	_, err = repo.FindByID(ctx, product.ID+1000)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdate(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := fixtures.NewProduct()
	require.NoError(t, repo.Create(ctx, product))

	product.Description = "This is an updated description."
	product.Price = decimal.RequireFromString("42.00")
	require.NoError(t, repo.Update(ctx, product))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "This is an updated description.", found.Description)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("42.00")))

	// The id never changes across updates
	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, product.ID, all[0].ID)
}

func TestUpdateWithoutIDFailsValidation(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)

	product := fixtures.NewProduct()
	err := repo.Update(context.Background(), product)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingID)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)

	product := fixtures.NewProduct()
	product.ID = 987654
	err := repo.Update(context.Background(), product)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDelete(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := fixtures.NewProduct()
	require.NoError(t, repo.Create(ctx, product))

	require.NoError(t, repo.Delete(ctx, product.ID))

	_, err := repo.FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	// Deleting an absent row is a no-op
	assert.NoError(t, repo.Delete(ctx, product.ID))
}

func TestAll(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, fixtures.NewProduct()))
	}

	all, err = repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestFindByName(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	first := fixtures.NewProduct()
	first.Name = "kettle"
	require.NoError(t, repo.Create(ctx, first))

	second := fixtures.NewProduct()
	second.Name = "blender"
	require.NoError(t, repo.Create(ctx, second))

	found, err := repo.FindByName(ctx, "kettle")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	found, err = repo.FindByName(ctx, "toaster")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindByCategory(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	tools := fixtures.NewProduct()
	tools.Category = domain.CategoryTools
	require.NoError(t, repo.Create(ctx, tools))

	food := fixtures.NewProduct()
	food.Category = domain.CategoryFood
	require.NoError(t, repo.Create(ctx, food))

	found, err := repo.FindByCategory(ctx, domain.CategoryTools)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, tools.ID, found[0].ID)
}

func TestFindByAvailability(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	available := fixtures.NewProduct()
	available.Available = true
	require.NoError(t, repo.Create(ctx, available))

	unavailable := fixtures.NewProduct()
	unavailable.Available = false
	require.NoError(t, repo.Create(ctx, unavailable))

	found, err := repo.FindByAvailability(ctx, true)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, available.ID, found[0].ID)

	found, err = repo.FindByAvailability(ctx, false)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, unavailable.ID, found[0].ID)
}

func TestFindByPriceTextAndDecimalAgree(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := fixtures.NewProduct()
	product.Price = decimal.RequireFromString("19.99")
	require.NoError(t, repo.Create(ctx, product))

	other := fixtures.NewProduct()
	other.Price = decimal.RequireFromString("5.00")
	require.NoError(t, repo.Create(ctx, other))

	byDecimal, err := repo.FindByPrice(ctx, decimal.RequireFromString("19.99"))
	require.NoError(t, err)

	byText, err := repo.FindByPriceString(ctx, "19.99")
	require.NoError(t, err)

	require.Len(t, byDecimal, 1)
	require.Len(t, byText, 1)
	assert.Equal(t, byDecimal[0].ID, byText[0].ID)
	assert.True(t, byText[0].Price.Equal(byDecimal[0].Price))

	// Quoted and padded text normalizes to the same filter
	byQuoted, err := repo.FindByPriceString(ctx, ` "19.99" `)
	require.NoError(t, err)
	require.Len(t, byQuoted, 1)
	assert.Equal(t, byDecimal[0].ID, byQuoted[0].ID)
}

func TestFindByPriceStringRejectsGarbage(t *testing.T) {
	truncateProducts(t)
	repo := NewProductRepository(testDB)

	_, err := repo.FindByPriceString(context.Background(), "nineteen")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
