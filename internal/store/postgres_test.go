package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-catalog-service/internal/domain"
)

// Helper function to create a mock DB and PostgresStore for testing
func newMockDBAndStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	store := NewPostgresStore(db)
	require.NotNil(t, store, "Store should not be nil")

	return db, mock, store
}

var productRowColumns = []string{"id", "name", "description", "price", "category", "subcategory", "image_url", "stock", "rating", "review_count"}

func TestPostgresStore_ListCatalog(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	query := regexp.QuoteMeta(`SELECT ` + productColumns + ` FROM marketplace.products ORDER BY id ASC;`)
	rows := sqlmock.NewRows(productRowColumns).
		AddRow(int64(1), "Recycled Paper Notebook", "notebook", 12.99, "Stationery", "Notebooks", "", int64(50), 4.5, int64(128)).
		AddRow(int64(2), "Upcycled Glass Vase", "vase", 29.99, "Home & Living", "Decor", "", int64(0), 4.8, int64(89))
	mock.ExpectQuery(query).WillReturnRows(rows)

	products, err := store.ListCatalog(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, domain.Stationery, products[0].Category)
	assert.Equal(t, int32(50), products[0].Stock)
	assert.Equal(t, domain.HomeLiving, products[1].Category)
	assert.False(t, products[1].InStock())

	require.NoError(t, mock.ExpectationsWereMet(), "SQLmock expectations were not met")
}

func TestPostgresStore_ListCatalog_Empty(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM marketplace.products ORDER BY id ASC;`)).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	products, err := store.ListCatalog(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProductByID_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	query := regexp.QuoteMeta(`SELECT ` + productColumns + ` FROM marketplace.products WHERE id = $1;`)
	mock.ExpectQuery(query).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	product, err := store.GetProductByID(context.Background(), 99)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProductNotFound), "Error should be ErrProductNotFound")
	assert.Nil(t, product)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateProduct(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	toCreate := &domain.Product{
		Name: "Bottle Cap Mosaic", Description: "Wall mosaic", Price: 45, Category: domain.ArtDecor,
		Subcategory: "Handmade", Stock: 3, Rating: 0, ReviewCount: 0,
	}
	query := regexp.QuoteMeta(`INSERT INTO marketplace.products`)
	rows := sqlmock.NewRows(productRowColumns).
		AddRow(int64(9), toCreate.Name, toCreate.Description, toCreate.Price, "Art & Decor", "Handmade", "", int64(3), 0.0, int64(0))
	mock.ExpectQuery(query).
		WithArgs(toCreate.Name, toCreate.Description, toCreate.Price, "Art & Decor", "Handmade", "", toCreate.Stock, toCreate.Rating, toCreate.ReviewCount).
		WillReturnRows(rows)

	created, err := store.CreateProduct(context.Background(), toCreate)

	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, domain.ArtDecor, created.Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateProduct_CheckViolation(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO marketplace.products`)).
		WillReturnError(&pq.Error{Code: "23514", Constraint: "products_rating_check"})

	created, err := store.CreateProduct(context.Background(), &domain.Product{Name: "x", Category: domain.Garden, Rating: 7})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProduct))
	assert.Contains(t, err.Error(), "products_rating_check")
	assert.Nil(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteProduct(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	query := regexp.QuoteMeta(`DELETE FROM marketplace.products WHERE id = $1;`)
	mock.ExpectExec(query).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(int64(99)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.DeleteProduct(context.Background(), 1))
	err := store.DeleteProduct(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrProductNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

var (
	reserveStockSQL = regexp.QuoteMeta(`UPDATE marketplace.products SET stock = stock - $1 WHERE id = $2 AND stock >= $1;`)
	productExistSQL = regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM marketplace.products WHERE id = $1);`)
	insertOrderSQL  = regexp.QuoteMeta(`INSERT INTO marketplace.orders (id, shipping_address, total)`)
	insertLineSQL   = regexp.QuoteMeta(`INSERT INTO marketplace.order_lines (order_id, product_id, name, unit_price, quantity)`)
)

func testOrder() *domain.Order {
	return &domain.Order{
		ShippingAddress: "12 Green Street",
		Lines: []domain.OrderLine{
			{ProductID: 3, Name: "Eco-Friendly Tote Bag", UnitPrice: 19.99, Quantity: 2},
			{ProductID: 1, Name: "Recycled Paper Notebook", UnitPrice: 12.99, Quantity: 1},
		},
		Total: 52.97,
	}
}

func TestPostgresStore_PlaceOrder(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	createdAt := time.Now().UTC().Truncate(time.Second)
	mock.ExpectBegin()
	mock.ExpectExec(reserveStockSQL).WithArgs(2, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(reserveStockSQL).WithArgs(1, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertOrderSQL).
		WithArgs(sqlmock.AnyArg(), "12 Green Street", 52.97).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))
	mock.ExpectExec(insertLineSQL).WithArgs(sqlmock.AnyArg(), 3, "Eco-Friendly Tote Bag", 19.99, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertLineSQL).WithArgs(sqlmock.AnyArg(), 1, "Recycled Paper Notebook", 12.99, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order := testOrder()
	placed, err := store.PlaceOrder(context.Background(), order)

	require.NoError(t, err)
	assert.NotEmpty(t, placed.ID)
	assert.Empty(t, order.ID, "input order must not be modified")
	assert.Equal(t, createdAt, placed.CreatedAt)
	assert.Len(t, placed.Lines, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PlaceOrder_InsufficientStock(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(reserveStockSQL).WithArgs(2, 3).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(productExistSQL).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	placed, err := store.PlaceOrder(context.Background(), testOrder())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Nil(t, placed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PlaceOrder_UnknownProduct(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(reserveStockSQL).WithArgs(2, 3).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(productExistSQL).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := store.PlaceOrder(context.Background(), testOrder())

	assert.True(t, errors.Is(err, ErrProductNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PlaceOrder_NoLines(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	_, err := store.PlaceOrder(context.Background(), &domain.Order{ShippingAddress: "x"})
	assert.ErrorIs(t, err, ErrInvalidOrder)
	require.NoError(t, mock.ExpectationsWereMet())
}
