package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketplace-catalog-service/internal/catalog"
	"marketplace-catalog-service/internal/domain"
)

type listOptions struct {
	category    string
	subcategory string
	search      string
	minPrice    float64
	maxPrice    float64
	minRating   float64
	inStock     bool
	sort        string
	output      string
}

func newListCmd(c *cli) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Filter and sort the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := opts.selection(cmd.Flags().Changed("max-price"))
			if err != nil {
				return err
			}
			products, err := c.products()
			if err != nil {
				return err
			}
			matched := catalog.FilterAndSort(products, sel.Config())
			c.logger.Debug("Filtered catalog", zap.Int("total", len(products)), zap.Int("matched", len(matched)))
			return writeProducts(cmd.OutOrStdout(), opts.output, matched, sel.ActiveFilters())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.category, "category", "", "category name, e.g. \"Home & Living\"")
	f.StringVar(&opts.subcategory, "subcategory", "", "subcategory within --category")
	f.StringVarP(&opts.search, "query", "q", "", "case-insensitive search over name and description")
	f.Float64Var(&opts.minPrice, "min-price", 0, "lowest price, inclusive")
	f.Float64Var(&opts.maxPrice, "max-price", 0, "highest price, inclusive (unbounded when omitted)")
	f.Float64Var(&opts.minRating, "min-rating", 0, "lowest rating, 0 to 5")
	f.BoolVar(&opts.inStock, "in-stock", false, "only products with stock")
	f.StringVar(&opts.sort, "sort", string(domain.SortFeatured), "featured, price-low, price-high, rating or reviews")
	f.StringVarP(&opts.output, "output", "o", "table", "table or json")
	return cmd
}

func (o *listOptions) selection(maxPriceSet bool) (*catalog.Selection, error) {
	sel := catalog.NewSelection()
	category, err := domain.ParseCategory(o.category)
	if err != nil {
		return nil, err
	}
	sel.SelectCategory(category)
	if err := sel.SelectSubcategory(o.subcategory); err != nil {
		return nil, err
	}
	sel.SetSearch(o.search)

	maxPrice := math.Inf(1)
	if maxPriceSet {
		maxPrice = o.maxPrice
	}
	if math.IsNaN(o.minPrice) || math.IsNaN(maxPrice) || o.minPrice < 0 || o.minPrice > maxPrice {
		return nil, fmt.Errorf("invalid price range %v to %v", o.minPrice, maxPrice)
	}
	sel.SetPriceRange(o.minPrice, maxPrice)
	if err := sel.SetMinRating(o.minRating); err != nil {
		return nil, err
	}
	sel.SetInStockOnly(o.inStock)

	key, err := domain.ParseSortKey(o.sort)
	if err != nil {
		return nil, err
	}
	sel.SetSort(key)
	return sel, nil
}

func writeProducts(w io.Writer, format string, products []domain.Product, filters []catalog.ActiveFilter) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(products)
	case "table":
		t := newTable("ID", "NAME", "CATEGORY", "PRICE", "RATING", "REVIEWS", "STOCK")
		for _, p := range products {
			t.addRow(
				strconv.FormatInt(p.ID, 10),
				p.Name,
				string(p.Category)+" / "+p.Subcategory,
				"$"+strconv.FormatFloat(p.Price, 'f', 2, 64),
				strconv.FormatFloat(p.Rating, 'f', 1, 64),
				strconv.Itoa(int(p.ReviewCount)),
				stockLabel(p),
			)
		}
		_, err := fmt.Fprint(w, t.render())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, summaryLine(len(products), filters))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func stockLabel(p domain.Product) string {
	switch {
	case !p.InStock():
		return "out of stock"
	case p.IsLowStock():
		return fmt.Sprintf("%d (low)", p.Stock)
	default:
		return strconv.Itoa(int(p.Stock))
	}
}

func summaryLine(n int, filters []catalog.ActiveFilter) string {
	line := fmt.Sprintf("%d products", n)
	if len(filters) == 0 {
		return line
	}
	line += " | filters:"
	for _, f := range filters {
		line += " [" + f.Label + "]"
	}
	return line
}

func newCategoriesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show the category taxonomy with product counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := c.products()
			if err != nil {
				return err
			}
			summary := catalog.Summarize(products)
			t := newTable("CATEGORY", "PRODUCTS", "SUBCATEGORIES")
			for _, info := range domain.Categories() {
				count := summary.CategoryCounts[info.Name]
				if info.Name.IsAll() {
					count = summary.Total
				}
				subs := ""
				for i, s := range info.Subcategories {
					if i > 0 {
						subs += ", "
					}
					subs += s
				}
				t.addRow(string(info.Name), strconv.Itoa(count), subs)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), t.render())
			return err
		},
	}
}
