// Package validation builds the shared validator with marketplace-specific rules.
package validation

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	"marketplace-catalog-service/internal/domain"
)

// Tags registered by New.
const (
	// TagCategory accepts a real category name; the "All Products" sentinel is rejected.
	TagCategory = "marketplace_category"
	// TagSubcategoryOf accepts an empty value or a subcategory of the sibling field named in the param.
	TagSubcategoryOf = "subcategory_of"
)

// New returns a validator with the marketplace rules registered.
func New() *validator.Validate {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation(TagCategory, validateCategory)
	_ = v.RegisterValidation(TagSubcategoryOf, validateSubcategoryOf)
	return v
}

func validateCategory(fl validator.FieldLevel) bool {
	c, err := domain.ParseCategory(fl.Field().String())
	return err == nil && !c.IsAll()
}

func validateSubcategoryOf(fl validator.FieldLevel) bool {
	sub := fl.Field().String()
	if sub == "" {
		return true
	}
	category := reflect.Indirect(fl.Parent()).FieldByName(fl.Param())
	if !category.IsValid() || category.Kind() != reflect.String {
		return false
	}
	return domain.Category(category.String()).HasSubcategory(sub)
}
