// Package catalog derives the visible marketplace listing from a product snapshot.
//
// FilterAndSort is pure: it reads its inputs, never mutates them and keeps no state
// between calls, so a single snapshot may be filtered from many goroutines at once.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"marketplace-catalog-service/internal/domain"
)

type predicate func(p domain.Product) bool

// FilterAndSort returns the products passing every active filter of cfg, ordered by cfg.Sort.
// The result is always a new slice. Sorting is stable, so ties keep catalog order.
func FilterAndSort(products []domain.Product, cfg domain.FilterConfig) []domain.Product {
	preds := predicates(cfg)

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matchesAll(p, preds) {
			out = append(out, p)
		}
	}

	if cmpFn := comparator(cfg.Sort); cmpFn != nil {
		slices.SortStableFunc(out, cmpFn)
	}
	return out
}

func matchesAll(p domain.Product, preds []predicate) bool {
	for _, pred := range preds {
		if !pred(p) {
			return false
		}
	}
	return true
}

// predicates builds only the checks that can reject something under cfg.
// Price and rating bounds are always evaluated literally.
func predicates(cfg domain.FilterConfig) []predicate {
	preds := make([]predicate, 0, 6)

	if !cfg.Category.IsAll() {
		category := cfg.Category
		preds = append(preds, func(p domain.Product) bool { return p.Category == category })
	}
	if cfg.Subcategory != "" {
		sub := cfg.Subcategory
		preds = append(preds, func(p domain.Product) bool { return p.Subcategory == sub })
	}
	if cfg.SearchQuery != "" {
		query := strings.ToLower(cfg.SearchQuery)
		preds = append(preds, func(p domain.Product) bool {
			return strings.Contains(strings.ToLower(p.Name), query) ||
				strings.Contains(strings.ToLower(p.Description), query)
		})
	}

	priceMin, priceMax := cfg.PriceMin, cfg.PriceMax
	preds = append(preds, func(p domain.Product) bool { return p.Price >= priceMin && p.Price <= priceMax })

	minRating := cfg.MinRating
	preds = append(preds, func(p domain.Product) bool { return p.Rating >= minRating })

	if cfg.InStockOnly {
		preds = append(preds, domain.Product.InStock)
	}
	return preds
}

// comparator returns nil for keys that keep catalog order.
func comparator(key domain.SortKey) func(a, b domain.Product) int {
	switch key {
	case domain.SortPriceLow:
		return func(a, b domain.Product) int { return cmp.Compare(a.Price, b.Price) }
	case domain.SortPriceHigh:
		return func(a, b domain.Product) int { return cmp.Compare(b.Price, a.Price) }
	case domain.SortRating:
		return func(a, b domain.Product) int { return cmp.Compare(b.Rating, a.Rating) }
	case domain.SortReviews:
		return func(a, b domain.Product) int { return cmp.Compare(b.ReviewCount, a.ReviewCount) }
	default:
		return nil
	}
}

// Summary describes a catalog for building filter menus.
type Summary struct {
	Total          int                     `json:"total"`
	InStock        int                     `json:"in_stock"`
	OutOfStock     int                     `json:"out_of_stock"`
	CategoryCounts map[domain.Category]int `json:"category_counts"`
	PriceMin       float64                 `json:"price_min"`
	PriceMax       float64                 `json:"price_max"`
}

// Summarize counts availability and categories and finds the price span of products.
// Prices are zero for an empty catalog.
func Summarize(products []domain.Product) Summary {
	s := Summary{
		Total:          len(products),
		CategoryCounts: make(map[domain.Category]int),
	}
	for i, p := range products {
		if p.InStock() {
			s.InStock++
		} else {
			s.OutOfStock++
		}
		s.CategoryCounts[p.Category]++

		if i == 0 || p.Price < s.PriceMin {
			s.PriceMin = p.Price
		}
		if i == 0 || p.Price > s.PriceMax {
			s.PriceMax = p.Price
		}
	}
	return s
}
