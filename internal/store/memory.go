package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketplace-catalog-service/internal/domain"
)

// MemoryStore is a session-scoped Store held in process memory.
// It backs the demo deployment and tests; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	products []domain.Product
	orders   []domain.Order
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore seeds a store with products. Zero IDs are assigned after the highest seeded ID.
func NewMemoryStore(seed []domain.Product) *MemoryStore {
	s := &MemoryStore{
		products: make([]domain.Product, 0, len(seed)),
		now:      time.Now,
	}
	for _, p := range seed {
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	for _, p := range seed {
		if p.ID == 0 {
			s.nextID++
			p.ID = s.nextID
		}
		s.products = append(s.products, p)
	}
	return s
}

// ListCatalog returns a copy of the catalog in insertion order.
func (s *MemoryStore) ListCatalog(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products), nil
}

func (s *MemoryStore) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product.Price < 0 || product.Stock < 0 || product.Rating < 0 || product.Rating > 5 || product.ReviewCount < 0 {
		return nil, ErrInvalidProduct
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	created := *product
	created.ID = s.nextID
	s.products = append(s.products, created)
	return &created, nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrProductNotFound
	}
	s.products = slices.Delete(s.products, i, i+1)
	return nil
}

// PlaceOrder checks every line before touching stock so a failed order leaves the catalog unchanged.
func (s *MemoryStore) PlaceOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if len(order.Lines) == 0 {
		return nil, ErrInvalidOrder
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	requested := make(map[int64]int32, len(order.Lines))
	for _, line := range order.Lines {
		requested[line.ProductID] += line.Quantity
	}
	for _, line := range order.Lines {
		i := s.indexOf(line.ProductID)
		if i < 0 {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, line.ProductID)
		}
		if s.products[i].Stock < requested[line.ProductID] {
			return nil, fmt.Errorf("%w: product %d", ErrInsufficientStock, line.ProductID)
		}
	}
	for id, qty := range requested {
		s.products[s.indexOf(id)].Stock -= qty
	}

	placed := *order
	placed.Lines = slices.Clone(order.Lines)
	if placed.ID == "" {
		placed.ID = uuid.NewString()
	}
	placed.CreatedAt = s.now().UTC()
	s.orders = append(s.orders, placed)
	return &placed, nil
}

// Orders returns every placed order, oldest first.
func (s *MemoryStore) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orders)
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) indexOf(id int64) int {
	return slices.IndexFunc(s.products, func(p domain.Product) bool { return p.ID == id })
}
