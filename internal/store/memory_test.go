package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-catalog-service/internal/domain"
)

func TestSampleCatalog(t *testing.T) {
	products := SampleCatalog()
	require.Len(t, products, 8)
	assert.Equal(t, "Recycled Paper Notebook", products[0].Name)
	assert.Equal(t, domain.HomeLiving, products[7].Category)
	assert.Equal(t, int32(167), products[7].ReviewCount)
	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID)
	}
}

func TestLoadCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown category", "products:\n  - name: Lamp\n    category: Lighting\n"},
		{"subcategory outside category", "products:\n  - name: Lamp\n    category: Garden\n    subcategory: Bags\n"},
		{"rating above five", "products:\n  - name: Lamp\n    category: Garden\n    rating: 5.5\n"},
		{"negative price", "products:\n  - name: Lamp\n    category: Garden\n    price: -1\n"},
		{"unknown field", "products:\n  - name: Lamp\n    category: Garden\n    colour: red\n"},
		{"duplicate ids", "products:\n  - id: 1\n    name: A\n    category: Garden\n  - id: 1\n    name: B\n    category: Garden\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.yaml))
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestLoadCatalog_EmptyFile(t *testing.T) {
	products, err := LoadCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestMemoryStore_AssignsIDsAfterSeed(t *testing.T) {
	s := NewMemoryStore([]domain.Product{{ID: 5, Name: "a"}, {Name: "b"}})
	ctx := context.Background()

	products, err := s.ListCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), products[0].ID)
	assert.Equal(t, int64(6), products[1].ID)

	created, err := s.CreateProduct(ctx, &domain.Product{Name: "c", Category: domain.Garden})
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)

	_, err = s.CreateProduct(ctx, &domain.Product{Name: "d", Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestMemoryStore_ListCatalogReturnsCopy(t *testing.T) {
	s := NewMemoryStore(SampleCatalog())
	ctx := context.Background()

	products, err := s.ListCatalog(ctx)
	require.NoError(t, err)
	products[0].Name = "changed"

	p, err := s.GetProductByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Recycled Paper Notebook", p.Name)
}

func TestMemoryStore_DeleteProduct(t *testing.T) {
	s := NewMemoryStore(SampleCatalog())
	ctx := context.Background()

	require.NoError(t, s.DeleteProduct(ctx, 4))
	assert.ErrorIs(t, s.DeleteProduct(ctx, 4), ErrProductNotFound)
	_, err := s.GetProductByID(ctx, 4)
	assert.ErrorIs(t, err, ErrProductNotFound)

	products, _ := s.ListCatalog(ctx)
	assert.Len(t, products, 7)
}

func TestMemoryStore_PlaceOrder(t *testing.T) {
	s := NewMemoryStore(SampleCatalog())
	ctx := context.Background()

	placed, err := s.PlaceOrder(ctx, testOrder())
	require.NoError(t, err)
	assert.NotEmpty(t, placed.ID)
	assert.False(t, placed.CreatedAt.IsZero())

	tote, _ := s.GetProductByID(ctx, 3)
	notebook, _ := s.GetProductByID(ctx, 1)
	assert.Equal(t, int32(98), tote.Stock)
	assert.Equal(t, int32(49), notebook.Stock)
	assert.Len(t, s.Orders(), 1)
}

func TestMemoryStore_PlaceOrderIsAllOrNothing(t *testing.T) {
	s := NewMemoryStore(SampleCatalog())
	ctx := context.Background()

	order := &domain.Order{
		ShippingAddress: "12 Green Street",
		Lines: []domain.OrderLine{
			{ProductID: 1, Quantity: 1},
			{ProductID: 4, Quantity: 16}, // only 15 in stock
		},
	}
	_, err := s.PlaceOrder(ctx, order)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	notebook, _ := s.GetProductByID(ctx, 1)
	assert.Equal(t, int32(50), notebook.Stock)
	assert.Empty(t, s.Orders())

	_, err = s.PlaceOrder(ctx, &domain.Order{Lines: []domain.OrderLine{{ProductID: 42, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = s.PlaceOrder(ctx, &domain.Order{})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}
