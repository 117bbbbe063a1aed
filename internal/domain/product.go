package domain

import (
	"errors"
	"fmt"
	"slices"
)

// Predefined errors for domain parsing.
var (
	ErrUnknownCategory     = errors.New("domain: unknown category")
	ErrUnknownSortKey      = errors.New("domain: unknown sort key")
	ErrSubcategoryMismatch = errors.New("domain: subcategory does not belong to category")
)

// LowStockThreshold is the stock level below which a product is flagged as running low.
const LowStockThreshold = 20

// Category is one of the fixed marketplace category names.
type Category string

const (
	// AllProducts is the sentinel meaning "no category filter".
	AllProducts Category = "All Products"
	HomeLiving  Category = "Home & Living"
	Fashion     Category = "Fashion"
	Garden      Category = "Garden"
	Stationery  Category = "Stationery"
	ArtDecor    Category = "Art & Decor"
)

// CategoryInfo pairs a category with the subcategories valid under it.
type CategoryInfo struct {
	Name          Category `json:"name"`
	Subcategories []string `json:"subcategories"`
}

var taxonomy = []CategoryInfo{
	{Name: AllProducts, Subcategories: []string{}},
	{Name: HomeLiving, Subcategories: []string{"Kitchen", "Decor", "Furniture", "Storage"}},
	{Name: Fashion, Subcategories: []string{"Accessories", "Clothing", "Bags", "Jewelry"}},
	{Name: Garden, Subcategories: []string{"Plants", "Tools", "Composting", "Outdoor"}},
	{Name: Stationery, Subcategories: []string{"Notebooks", "Writing", "Organization", "Art Supplies"}},
	{Name: ArtDecor, Subcategories: []string{"Wall Art", "Sculptures", "Handmade", "Vintage"}},
}

// Categories returns the full taxonomy, sentinel first. The result is a copy.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(taxonomy))
	for i, c := range taxonomy {
		out[i] = CategoryInfo{Name: c.Name, Subcategories: slices.Clone(c.Subcategories)}
	}
	return out
}

// ParseCategory maps a raw name onto the enumerated set.
// An empty string selects the AllProducts sentinel.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return AllProducts, nil
	}
	for _, c := range taxonomy {
		if string(c.Name) == s {
			return c.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// IsAll reports whether c is the "no category filter" sentinel.
func (c Category) IsAll() bool { return c == AllProducts }

// Subcategories lists the subcategories declared for c.
func (c Category) Subcategories() []string {
	for _, info := range taxonomy {
		if info.Name == c {
			return slices.Clone(info.Subcategories)
		}
	}
	return nil
}

// HasSubcategory reports whether sub is declared under c.
func (c Category) HasSubcategory(sub string) bool {
	for _, info := range taxonomy {
		if info.Name == c {
			return slices.Contains(info.Subcategories, sub)
		}
	}
	return false
}

// Product represents an item listed in the recycled goods marketplace.
// Products are treated as immutable within a catalog snapshot.
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    Category `json:"category"`
	Subcategory string   `json:"subcategory"`
	ImageURL    string   `json:"image_url,omitempty"`
	Stock       int32    `json:"stock"`
	Rating      float64  `json:"rating"`
	ReviewCount int32    `json:"review_count"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool { return p.Stock > 0 }

// IsLowStock reports whether the product should carry a low stock badge.
func (p Product) IsLowStock() bool { return p.Stock < LowStockThreshold }
