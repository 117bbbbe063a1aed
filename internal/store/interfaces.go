package store

import (
	"context"
	"errors"

	"marketplace-catalog-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound   = errors.New("store: product not found")
	ErrInsufficientStock = errors.New("store: insufficient stock")
	ErrInvalidProduct    = errors.New("store: product violates catalog constraints")
	ErrInvalidOrder      = errors.New("store: order has no lines")
)

// ProductStorer is the catalog source. ListCatalog returns the full snapshot in catalog order.
type ProductStorer interface {
	ListCatalog(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// OrderStorer records checked-out carts.
// PlaceOrder decrements stock for every line atomically: either all lines are reserved or none.
type OrderStorer interface {
	PlaceOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
}

// Store is a full marketplace backend.
type Store interface {
	ProductStorer
	OrderStorer
	Close() error
}
