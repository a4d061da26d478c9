package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategories is the category selection that applies no category filter.
const AllCategories = "all"

type (
	// A Product is immutable once the catalog is loaded.
	Product struct {
		ID             int64
		Title          string
		Price          decimal.Decimal
		CompareAtPrice decimal.Decimal
		Vendor         string
		BadgeText      string
		ImageURL       string
		SecondImageURL string
	}

	Category struct {
		Name     string
		Products []Product
	}
)

// A Catalog is an ordered sequence of categories, read-only after load.
type Catalog []Category

// Filter returns the displayed view for the category selection and the
// search term.
//
// The result is always built from the full catalog, so repeated calls with
// the same arguments yield the same view.
func (c Catalog) Filter(category, term string) Catalog {
	return c.byCategory(category).search(term)
}

// Product looks up a product by id across all categories.
func (c Catalog) Product(id int64) (Product, bool) {
	for _, category := range c {
		for _, p := range category.Products {
			if p.ID == id {
				return p, true
			}
		}
	}
	return Product{}, false
}

func (c Catalog) NumProducts() (n int) {
	for _, category := range c {
		n += len(category.Products)
	}
	return n
}

func (c Catalog) byCategory(name string) Catalog {
	if name == AllCategories {
		return c
	}

	var out Catalog
	for _, category := range c {
		if category.Name == name {
			out = append(out, category)
		}
	}
	return out
}

func (c Catalog) search(term string) Catalog {
	term = strings.ToLower(term)

	out := make(Catalog, 0, len(c))
	for _, category := range c {
		if containsFold(category.Name, term) {
			out = append(out, category)
			continue
		}

		var matched []Product
		for _, p := range category.Products {
			if p.matches(term) {
				matched = append(matched, p)
			}
		}
		if len(matched) != 0 {
			out = append(out, Category{Name: category.Name, Products: matched})
		}
	}
	return out
}

// matches expects a lower-cased term.
func (p Product) matches(term string) bool {
	return containsFold(p.Title, term) ||
		(p.Vendor != "" && containsFold(p.Vendor, term))
}

func containsFold(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}
