package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"marketplace-catalog-service/internal/domain"
)

const productColumns = `id, name, description, price, category, subcategory, image_url, stock, rating, review_count`

// PostgresStore implements Store on top of the marketplace schema in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var category string
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &category, &p.Subcategory,
		&p.ImageURL, &p.Stock, &p.Rating, &p.ReviewCount,
	)
	p.Category = domain.Category(category)
	return p, err
}

// --- ProductStorer Implementation ---

// ListCatalog loads every product ordered by id, which is the catalog insertion order.
func (s *PostgresStore) ListCatalog(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM marketplace.products ORDER BY id ASC;`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListCatalog failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListCatalog failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListCatalog iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM marketplace.products WHERE id = $1;`
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO marketplace.products
			(name, description, price, category, subcategory, image_url, stock, rating, review_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + productColumns + `;`
	row := s.db.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price, string(product.Category), product.Subcategory,
		product.ImageURL, product.Stock, product.Rating, product.ReviewCount,
	)
	created, err := scanProduct(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23514" { // check_violation
			return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, pqErr.Constraint)
		}
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	query := `DELETE FROM marketplace.products WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// --- OrderStorer Implementation ---

// PlaceOrder reserves stock for each line and records the order in one transaction.
// The "stock >= $1" guard keeps stock from going negative under concurrent checkouts.
func (s *PostgresStore) PlaceOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if len(order.Lines) == 0 {
		return nil, ErrInvalidOrder
	}
	placed := *order
	placed.Lines = slices.Clone(order.Lines)
	if placed.ID == "" {
		placed.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: PlaceOrder failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op once committed

	reserveQuery := `UPDATE marketplace.products SET stock = stock - $1 WHERE id = $2 AND stock >= $1;`
	for _, line := range placed.Lines {
		result, err := tx.ExecContext(ctx, reserveQuery, line.Quantity, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("store: PlaceOrder failed to reserve stock for product %d: %w", line.ProductID, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("store: PlaceOrder failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			// Either the product is gone or the guard rejected the update.
			var exists bool
			existsQuery := `SELECT EXISTS(SELECT 1 FROM marketplace.products WHERE id = $1);`
			if err := tx.QueryRowContext(ctx, existsQuery, line.ProductID).Scan(&exists); err != nil {
				return nil, fmt.Errorf("store: PlaceOrder failed to check product %d: %w", line.ProductID, err)
			}
			if !exists {
				return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, line.ProductID)
			}
			return nil, fmt.Errorf("%w: product %d", ErrInsufficientStock, line.ProductID)
		}
	}

	orderQuery := `
		INSERT INTO marketplace.orders (id, shipping_address, total)
		VALUES ($1, $2, $3)
		RETURNING created_at;`
	if err := tx.QueryRowContext(ctx, orderQuery, placed.ID, placed.ShippingAddress, placed.Total).Scan(&placed.CreatedAt); err != nil {
		return nil, fmt.Errorf("store: PlaceOrder failed to insert order: %w", err)
	}

	lineQuery := `
		INSERT INTO marketplace.order_lines (order_id, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5);`
	for _, line := range placed.Lines {
		if _, err := tx.ExecContext(ctx, lineQuery, placed.ID, line.ProductID, line.Name, line.UnitPrice, line.Quantity); err != nil {
			return nil, fmt.Errorf("store: PlaceOrder failed to insert line for product %d: %w", line.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: PlaceOrder failed to commit: %w", err)
	}
	return &placed, nil
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
