package store

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"marketplace-catalog-service/internal/domain"
	"marketplace-catalog-service/internal/validation"
)

// ErrInvalidCatalog is returned when a catalog file fails to decode or validate.
var ErrInvalidCatalog = errors.New("store: invalid catalog file")

//go:embed seed/products.yaml
var sampleCatalogYAML []byte

type catalogFile struct {
	Products []catalogEntry `yaml:"products" validate:"dive"`
}

type catalogEntry struct {
	ID          int64   `yaml:"id" validate:"gte=0"`
	Name        string  `yaml:"name" validate:"required,max=255"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price" validate:"gte=0"`
	Category    string  `yaml:"category" validate:"required,marketplace_category"`
	Subcategory string  `yaml:"subcategory" validate:"subcategory_of=Category"`
	ImageURL    string  `yaml:"image_url" validate:"omitempty,url,max=2048"`
	Stock       int32   `yaml:"stock" validate:"gte=0"`
	Rating      float64 `yaml:"rating" validate:"gte=0,lte=5"`
	Reviews     int32   `yaml:"reviews" validate:"gte=0"`
}

// LoadCatalog decodes a YAML catalog and validates every entry.
// Entries keep file order; non-zero IDs must be unique.
func LoadCatalog(r io.Reader) ([]domain.Product, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := validation.New().Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	seen := make(map[int64]bool, len(file.Products))
	products := make([]domain.Product, 0, len(file.Products))
	for _, e := range file.Products {
		if e.ID != 0 {
			if seen[e.ID] {
				return nil, fmt.Errorf("%w: duplicate product id %d", ErrInvalidCatalog, e.ID)
			}
			seen[e.ID] = true
		}
		products = append(products, domain.Product{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Price:       e.Price,
			Category:    domain.Category(e.Category),
			Subcategory: e.Subcategory,
			ImageURL:    e.ImageURL,
			Stock:       e.Stock,
			Rating:      e.Rating,
			ReviewCount: e.Reviews,
		})
	}
	return products, nil
}

// SampleCatalog returns the bundled demo catalog.
func SampleCatalog() []domain.Product {
	products, err := LoadCatalog(bytes.NewReader(sampleCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("store: bundled sample catalog is invalid: %v", err))
	}
	return products
}
