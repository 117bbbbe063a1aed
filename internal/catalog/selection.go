package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"marketplace-catalog-service/internal/domain"
)

// ErrRatingOutOfRange is returned when a minimum rating falls outside [0, 5].
var ErrRatingOutOfRange = errors.New("catalog: minimum rating must be between 0 and 5")

// FilterKind names one removable filter.
type FilterKind string

const (
	FilterCategory    FilterKind = "category"
	FilterSubcategory FilterKind = "subcategory"
	FilterPrice       FilterKind = "price"
	FilterRating      FilterKind = "rating"
	FilterStock       FilterKind = "stock"
)

// ActiveFilter is a filter currently narrowing the listing, with the label shown to shoppers.
type ActiveFilter struct {
	Kind  FilterKind `json:"kind"`
	Label string     `json:"label"`
}

// Selection owns a FilterConfig and keeps it consistent while it is edited.
// It is not safe for concurrent use.
type Selection struct {
	cfg domain.FilterConfig
}

// NewSelection starts from the default configuration.
func NewSelection() *Selection {
	return &Selection{cfg: domain.DefaultFilterConfig()}
}

// Config returns a copy of the current configuration.
func (s *Selection) Config() domain.FilterConfig {
	return s.cfg
}

// SelectCategory switches category and always drops the subcategory,
// since a subcategory is only meaningful under the category it was picked from.
func (s *Selection) SelectCategory(c domain.Category) {
	s.cfg.Category = c
	s.cfg.Subcategory = ""
}

// SelectSubcategory narrows the current category. An empty sub clears the subcategory.
func (s *Selection) SelectSubcategory(sub string) error {
	if sub == "" {
		s.cfg.Subcategory = ""
		return nil
	}
	if !s.cfg.Category.HasSubcategory(sub) {
		return fmt.Errorf("%w: %q is not under %q", domain.ErrSubcategoryMismatch, sub, s.cfg.Category)
	}
	s.cfg.Subcategory = sub
	return nil
}

func (s *Selection) SetSearch(query string) { s.cfg.SearchQuery = query }

// SetPriceRange sets inclusive bounds. Use math.Inf(1) for an open upper bound.
func (s *Selection) SetPriceRange(minPrice, maxPrice float64) {
	s.cfg.PriceMin = minPrice
	s.cfg.PriceMax = maxPrice
}

func (s *Selection) SetMinRating(r float64) error {
	if math.IsNaN(r) || r < 0 || r > 5 {
		return fmt.Errorf("%w: %v", ErrRatingOutOfRange, r)
	}
	s.cfg.MinRating = r
	return nil
}

func (s *Selection) SetInStockOnly(v bool) { s.cfg.InStockOnly = v }

func (s *Selection) SetSort(k domain.SortKey) { s.cfg.Sort = k }

// Clear resets every filter and the sort order.
func (s *Selection) Clear() {
	s.cfg = domain.DefaultFilterConfig()
}

// ActiveFilters lists the filters that currently narrow the listing.
func (s *Selection) ActiveFilters() []ActiveFilter {
	def := domain.DefaultFilterConfig()
	active := make([]ActiveFilter, 0, 5)

	if !s.cfg.Category.IsAll() {
		active = append(active, ActiveFilter{Kind: FilterCategory, Label: string(s.cfg.Category)})
	}
	if s.cfg.Subcategory != "" {
		active = append(active, ActiveFilter{Kind: FilterSubcategory, Label: s.cfg.Subcategory})
	}
	if s.cfg.PriceMin != def.PriceMin || s.cfg.PriceMax != def.PriceMax {
		active = append(active, ActiveFilter{Kind: FilterPrice, Label: priceLabel(s.cfg.PriceMin, s.cfg.PriceMax)})
	}
	if s.cfg.MinRating > 0 {
		active = append(active, ActiveFilter{Kind: FilterRating, Label: formatAmount(s.cfg.MinRating) + "+ Stars"})
	}
	if s.cfg.InStockOnly {
		active = append(active, ActiveFilter{Kind: FilterStock, Label: "In Stock Only"})
	}
	return active
}

// Remove resets a single filter. Removing the category also removes the subcategory.
func (s *Selection) Remove(kind FilterKind) {
	def := domain.DefaultFilterConfig()
	switch kind {
	case FilterCategory:
		s.SelectCategory(def.Category)
	case FilterSubcategory:
		s.cfg.Subcategory = def.Subcategory
	case FilterPrice:
		s.SetPriceRange(def.PriceMin, def.PriceMax)
	case FilterRating:
		s.cfg.MinRating = def.MinRating
	case FilterStock:
		s.cfg.InStockOnly = def.InStockOnly
	}
}

func priceLabel(minPrice, maxPrice float64) string {
	if math.IsInf(maxPrice, 1) {
		return "$" + formatAmount(minPrice) + "+"
	}
	return "$" + formatAmount(minPrice) + " - $" + formatAmount(maxPrice)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
