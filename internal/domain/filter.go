package domain

import (
	"fmt"
	"math"
)

// SortKey selects the ordering applied to a filtered catalog.
type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortReviews   SortKey = "reviews"
)

var sortKeys = []SortKey{SortFeatured, SortPriceLow, SortPriceHigh, SortRating, SortReviews}

// SortKeys returns every accepted sort key in display order.
func SortKeys() []SortKey {
	out := make([]SortKey, len(sortKeys))
	copy(out, sortKeys)
	return out
}

var sortLabels = map[SortKey]string{
	SortFeatured:  "Featured",
	SortPriceLow:  "Price: Low to High",
	SortPriceHigh: "Price: High to Low",
	SortRating:    "Highest Rated",
	SortReviews:   "Most Reviews",
}

// Label is the menu text for k, or the raw key if k is unknown.
func (k SortKey) Label() string {
	if l, ok := sortLabels[k]; ok {
		return l
	}
	return string(k)
}

// ParseSortKey validates s. An empty string selects SortFeatured.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortFeatured, nil
	}
	for _, k := range sortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// FilterConfig is the set of active filter and sort selections at a point in time.
// PriceMax may be +Inf to leave the upper bound open.
type FilterConfig struct {
	Category    Category
	Subcategory string
	SearchQuery string
	PriceMin    float64
	PriceMax    float64
	MinRating   float64
	InStockOnly bool
	Sort        SortKey
}

// DefaultFilterConfig returns the configuration that selects the whole catalog in catalog order.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Category:  AllProducts,
		PriceMin:  0,
		PriceMax:  math.Inf(1),
		MinRating: 0,
		Sort:      SortFeatured,
	}
}

// IsDefault reports whether no filter or non-default sort is active.
func (f FilterConfig) IsDefault() bool {
	return f == DefaultFilterConfig()
}

// PriceRange is a predefined price bracket offered to shoppers.
type PriceRange struct {
	Min   float64
	Max   float64
	Label string
}

// Unbounded reports whether the range has no upper limit.
func (r PriceRange) Unbounded() bool { return math.IsInf(r.Max, 1) }

// PriceRanges returns the preset price brackets.
func PriceRanges() []PriceRange {
	return []PriceRange{
		{Min: 0, Max: 25, Label: "Under $25"},
		{Min: 25, Max: 50, Label: "$25 to $50"},
		{Min: 50, Max: 100, Label: "$50 to $100"},
		{Min: 100, Max: math.Inf(1), Label: "Over $100"},
	}
}

// RatingThresholds returns the "N stars & up" choices, highest first.
func RatingThresholds() []int {
	return []int{5, 4, 3, 2, 1}
}
