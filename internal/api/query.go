package api

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"marketplace-catalog-service/internal/catalog"
	"marketplace-catalog-service/internal/domain"
)

var errInvalidQuery = errors.New("invalid query")

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// listQuery is the raw, transport-independent form of a listing request.
// Empty fields keep their default.
type listQuery struct {
	Category    string
	Subcategory string
	Search      string
	MinPrice    string
	MaxPrice    string
	MinRating   string
	InStock     string
	Sort        string
}

// selection validates q and builds the filter selection it describes.
func (q listQuery) selection() (*catalog.Selection, error) {
	sel := catalog.NewSelection()

	category, err := domain.ParseCategory(q.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidQuery, err)
	}
	sel.SelectCategory(category)
	if err := sel.SelectSubcategory(q.Subcategory); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidQuery, err)
	}
	sel.SetSearch(q.Search)

	cfg := sel.Config()
	minPrice, maxPrice := cfg.PriceMin, cfg.PriceMax
	if q.MinPrice != "" {
		if minPrice, err = parsePrice(q.MinPrice); err != nil {
			return nil, fmt.Errorf("%w: min_price %v", errInvalidQuery, err)
		}
	}
	if q.MaxPrice != "" {
		if maxPrice, err = parsePrice(q.MaxPrice); err != nil {
			return nil, fmt.Errorf("%w: max_price %v", errInvalidQuery, err)
		}
	}
	if minPrice > maxPrice {
		return nil, fmt.Errorf("%w: min_price cannot exceed max_price", errInvalidQuery)
	}
	sel.SetPriceRange(minPrice, maxPrice)

	if q.MinRating != "" {
		r, err := strconv.ParseFloat(q.MinRating, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: min_rating must be a number", errInvalidQuery)
		}
		if err := sel.SetMinRating(r); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidQuery, err)
		}
	}
	if q.InStock != "" {
		b, err := strconv.ParseBool(q.InStock)
		if err != nil {
			return nil, fmt.Errorf("%w: in_stock must be true or false", errInvalidQuery)
		}
		sel.SetInStockOnly(b)
	}

	sort, err := domain.ParseSortKey(q.Sort)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidQuery, err)
	}
	sel.SetSort(sort)
	return sel, nil
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 {
		return 0, errors.New("must be a non-negative number")
	}
	return v, nil
}

// page returns the slice of products for a 1-based page and the total page count.
func page(products []domain.Product, pageNum, limit int) ([]domain.Product, int) {
	totalPages := 0
	if len(products) > 0 {
		totalPages = (len(products) + limit - 1) / limit
	}
	if pageNum < 1 || pageNum > totalPages {
		return []domain.Product{}, totalPages
	}
	offset := (pageNum - 1) * limit
	end := min(offset+limit, len(products))
	return products[offset:end], totalPages
}

// clampLimit applies the default and maximum page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	return min(limit, maxPageLimit)
}

// openBound reports v as nil when it is +Inf, since JSON cannot carry infinities.
func openBound(v float64) *float64 {
	if math.IsInf(v, 1) {
		return nil
	}
	return &v
}
