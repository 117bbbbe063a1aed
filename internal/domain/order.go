package domain

import "time"

// OrderLine is one product entry of an order.
type OrderLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int32   `json:"quantity"`
}

// Order represents a checked-out cart.
// ID is assigned by the store when the order is placed.
type Order struct {
	ID              string      `json:"id"`
	ShippingAddress string      `json:"shipping_address"`
	Lines           []OrderLine `json:"lines"`
	Total           float64     `json:"total"`
	CreatedAt       time.Time   `json:"created_at"`
}
