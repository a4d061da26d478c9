package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrCatalogLoad covers network failures and malformed catalog payloads.
	ErrCatalogLoad     = errors.New("catalog load failure")
	ErrProductNotFound = errors.New("product not found")
)

// A Snapshot is the immutable state of one visitor's storefront.
// SessionID is empty for a visitor without a session.
type Snapshot struct {
	SessionID     string
	CatalogLoaded bool
	Category      string
	SearchTerm    string
	Displayed     Catalog
	Cart          Cart
	CartVisible   bool
}

type CartEventKind string

const (
	CartItemAdded         CartEventKind = "item_added"
	CartItemRemoved       CartEventKind = "item_removed"
	CartQuantityIncreased CartEventKind = "quantity_increased"
	CartQuantityDecreased CartEventKind = "quantity_decreased"
)

// A CartEvent records one effective change of a session's cart.
//
// Quantity is the resulting quantity of the product, 0 after removal.
type CartEvent struct {
	SessionID  string
	Kind       CartEventKind
	Product    Product
	Quantity   int
	CartTotal  decimal.Decimal
	OccurredAt time.Time
}
