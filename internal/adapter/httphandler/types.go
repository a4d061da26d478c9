package httphandler

import "github.com/niksmo/storefront/internal/core/domain"

type (
	Product struct {
		ID             int64  `json:"id"`
		Title          string `json:"title"`
		Price          string `json:"price"`
		CompareAtPrice string `json:"compare_at_price"`
		Vendor         string `json:"vendor,omitempty"`
		BadgeText      string `json:"badge_text,omitempty"`
		Image          string `json:"image"`
		SecondImage    string `json:"second_image,omitempty"`
	}

	Category struct {
		Name     string    `json:"category_name"`
		Products []Product `json:"category_products"`
	}

	CartItem struct {
		Product  Product `json:"product"`
		Quantity int     `json:"quantity"`
	}

	Cart struct {
		Items      []CartItem `json:"items"`
		ItemCount  int        `json:"item_count"`
		TotalPrice string     `json:"total_price"`
		Visible    bool       `json:"visible"`
	}

	Storefront struct {
		CatalogLoaded bool       `json:"catalog_loaded"`
		Category      string     `json:"category"`
		SearchTerm    string     `json:"search_term"`
		Categories    []Category `json:"categories"`
		Cart          Cart       `json:"cart"`
	}

	CatalogView struct {
		Categories []Category `json:"categories"`
	}
)

type (
	CategoryRequest struct {
		Category string `json:"category"`
	}

	SearchRequest struct {
		Term string `json:"term"`
	}

	AddItemRequest struct {
		ProductID *int64 `json:"product_id"`
	}

	ErrorResponse struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
)

const moneyPlaces = 2

func fromProduct(p domain.Product) Product {
	return Product{
		ID:             p.ID,
		Title:          p.Title,
		Price:          p.Price.StringFixed(moneyPlaces),
		CompareAtPrice: p.CompareAtPrice.StringFixed(moneyPlaces),
		Vendor:         p.Vendor,
		BadgeText:      p.BadgeText,
		Image:          p.ImageURL,
		SecondImage:    p.SecondImageURL,
	}
}

func fromCatalog(c domain.Catalog) []Category {
	categories := make([]Category, len(c))
	for i, dc := range c {
		categories[i].Name = dc.Name
		categories[i].Products = make([]Product, len(dc.Products))
		for j, p := range dc.Products {
			categories[i].Products[j] = fromProduct(p)
		}
	}
	return categories
}

func fromCart(c domain.Cart, visible bool) Cart {
	entries := c.Entries()
	items := make([]CartItem, len(entries))
	for i, e := range entries {
		items[i] = CartItem{Product: fromProduct(e.Product), Quantity: e.Quantity}
	}
	return Cart{
		Items:      items,
		ItemCount:  c.ItemCount(),
		TotalPrice: c.TotalPrice().StringFixed(moneyPlaces),
		Visible:    visible,
	}
}

func fromSnapshot(s domain.Snapshot) Storefront {
	return Storefront{
		CatalogLoaded: s.CatalogLoaded,
		Category:      s.Category,
		SearchTerm:    s.SearchTerm,
		Categories:    fromCatalog(s.Displayed),
		Cart:          fromCart(s.Cart, s.CartVisible),
	}
}
