package catalog

import (
	"errors"
	"math"
	"strings"

	"marketplace-catalog-service/internal/domain"
)

var (
	ErrEmptyCart              = errors.New("catalog: cart is empty")
	ErrMissingShippingAddress = errors.New("catalog: shipping address is required")
)

// Cart collects products picked by a shopper. Adding a product twice adds two units.
type Cart struct {
	items []domain.Product
}

func (c *Cart) Add(p domain.Product) {
	c.items = append(c.items, p)
}

// Remove drops every unit of the product with the given ID.
func (c *Cart) Remove(productID int64) {
	kept := c.items[:0]
	for _, p := range c.items {
		if p.ID != productID {
			kept = append(kept, p)
		}
	}
	c.items = kept
}

// Items returns the cart content in the order it was added.
func (c *Cart) Items() []domain.Product {
	out := make([]domain.Product, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int { return len(c.items) }

// Total is the unrounded sum of item prices.
func (c *Cart) Total() float64 {
	var sum float64
	for _, p := range c.items {
		sum += p.Price
	}
	return sum
}

// Checkout turns the cart into an order with one line per distinct product,
// in first-added order. The cart itself is left untouched.
func (c *Cart) Checkout(shippingAddress string) (domain.Order, error) {
	if len(c.items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}
	address := strings.TrimSpace(shippingAddress)
	if address == "" {
		return domain.Order{}, ErrMissingShippingAddress
	}

	index := make(map[int64]int, len(c.items))
	lines := make([]domain.OrderLine, 0, len(c.items))
	for _, p := range c.items {
		if i, ok := index[p.ID]; ok {
			lines[i].Quantity++
			continue
		}
		index[p.ID] = len(lines)
		lines = append(lines, domain.OrderLine{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price, Quantity: 1})
	}

	return domain.Order{
		ShippingAddress: address,
		Lines:           lines,
		Total:           roundCents(c.Total()),
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
