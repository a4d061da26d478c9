package catalogfeed

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	feed struct {
		Categories *[]category `json:"categories"`
	}

	category struct {
		Name     string    `json:"category_name"`
		Products []product `json:"category_products"`
	}

	product struct {
		ID             *productID          `json:"id"`
		Title          string              `json:"title"`
		Price          decimal.NullDecimal `json:"price"`
		CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
		Vendor         string              `json:"vendor"`
		BadgeText      string              `json:"badge_text"`
		Image          string              `json:"image"`
		SecondImage    string              `json:"second_image"`
	}
)

// productID accepts both JSON numbers and numeric strings.
type productID int64

func (id *productID) UnmarshalJSON(b []byte) error {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("product id %q: %w", b, err)
	}
	*id = productID(v)
	return nil
}

func (f feed) toDomain() (domain.Catalog, error) {
	if f.Categories == nil {
		return nil, fmt.Errorf("%w: missing categories", ErrMalformedCatalog)
	}

	catalog := make(domain.Catalog, 0, len(*f.Categories))
	for i, c := range *f.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf(
				"%w: category %d: missing category_name", ErrMalformedCatalog, i,
			)
		}

		dc := domain.Category{
			Name:     c.Name,
			Products: make([]domain.Product, 0, len(c.Products)),
		}
		for j, p := range c.Products {
			dp, err := p.toDomain()
			if err != nil {
				return nil, fmt.Errorf(
					"%w: category %q: product %d: %w", ErrMalformedCatalog, c.Name, j, err,
				)
			}
			dc.Products = append(dc.Products, dp)
		}
		catalog = append(catalog, dc)
	}
	return catalog, nil
}

func (p product) toDomain() (domain.Product, error) {
	switch {
	case p.ID == nil:
		return domain.Product{}, errMissing("id")
	case p.Title == "":
		return domain.Product{}, errMissing("title")
	case !p.Price.Valid:
		return domain.Product{}, errMissing("price")
	}

	return domain.Product{
		ID:             int64(*p.ID),
		Title:          p.Title,
		Price:          p.Price.Decimal,
		CompareAtPrice: p.CompareAtPrice.Decimal,
		Vendor:         p.Vendor,
		BadgeText:      p.BadgeText,
		ImageURL:       p.Image,
		SecondImageURL: p.SecondImage,
	}, nil
}

func errMissing(field string) error {
	return fmt.Errorf("missing %s", field)
}

// decode is split out for tests feeding raw payloads.
func decode(b []byte) (domain.Catalog, error) {
	var f feed
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCatalog, err)
	}
	return f.toDomain()
}
