package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-catalog-service/internal/domain"
	"marketplace-catalog-service/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func listJSON(t *testing.T, args ...string) []int64 {
	t.Helper()
	out, err := execute(t, append([]string{"list", "-o", "json"}, args...)...)
	require.NoError(t, err)
	var products []domain.Product
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func TestListCmd_JSON(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, listJSON(t))
	assert.Equal(t, []int64{5, 6}, listJSON(t, "--category", "Garden", "--sort", "price-high"))
	assert.Equal(t, []int64{1, 3}, listJSON(t, "--max-price", "20"))
	assert.Equal(t, []int64{7, 4}, listJSON(t, "--min-price", "50", "--sort", "reviews"))
	assert.Equal(t, []int64{3}, listJSON(t, "-q", "tote"))
}

func TestListCmd_Table(t *testing.T) {
	out, err := execute(t, "list", "--category", "Garden")
	require.NoError(t, err)
	assert.Contains(t, out, "Composting Starter Kit")
	assert.Contains(t, out, "$34.99")
	assert.Contains(t, out, "2 products | filters: [Garden]")
	assert.NotContains(t, out, "Tote")
}

func TestListCmd_InvalidFlags(t *testing.T) {
	for _, args := range [][]string{
		{"list", "--category", "Toys"},
		{"list", "--subcategory", "Bags"},
		{"list", "--sort", "newest"},
		{"list", "--min-rating", "7"},
		{"list", "--min-price", "30", "--max-price", "10"},
		{"list", "--min-price", "NaN"},
		{"list", "--max-price", "NaN"},
		{"list", "-o", "yaml"},
	} {
		_, err := execute(t, args...)
		assert.Error(t, err, "args %v", args)
	}
}

func TestListCmd_CatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`products:
  - id: 10
    name: Pallet Bench
    category: Garden
    subcategory: Outdoor
    price: 120
    stock: 0
`), 0o600))

	out, err := execute(t, "--catalog", path, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Pallet Bench")
	assert.Contains(t, out, "out of stock")

	_, err = execute(t, "--catalog", filepath.Join(t.TempDir(), "missing.yaml"), "list")
	assert.Error(t, err)
}

func TestCategoriesCmd(t *testing.T) {
	out, err := execute(t, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "All Products")
	assert.Contains(t, out, "Composting")
	assert.Contains(t, out, "Art & Decor")
}

func TestSeedCmd(t *testing.T) {
	target := store.NewMemoryStore(nil)
	var gotDSN string
	orig := openSeedTarget
	openSeedTarget = func(_ context.Context, dsn string) (seedTarget, error) {
		gotDSN = dsn
		return target, nil
	}
	t.Cleanup(func() { openSeedTarget = orig })

	out, err := execute(t, "seed", "--dsn", "host=db")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 8 products")
	assert.Equal(t, "host=db", gotDSN)

	products, err := target.ListCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 8)
}

func TestSeedCmd_NoDatabase(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "")
	_, err := execute(t, "seed")
	assert.ErrorContains(t, err, "no database configured")
}
