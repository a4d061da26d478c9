package port

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
)

type CatalogFetcher interface {
	FetchCatalog(context.Context) (domain.Catalog, error)
}

// A CartEventsProducer delivers one event. It is called from a single
// goroutine, in the order the events happened.
type CartEventsProducer interface {
	ProduceCartEvent(context.Context, domain.CartEvent) error
}

type CatalogReader interface {
	Catalog() domain.Catalog
	Loaded() bool
}

type CatalogFilterer interface {
	FilterCatalog(category, term string) domain.Catalog
}

// StorefrontViewer changes open a new session when sessionID is unknown
// or expired; the returned snapshot carries the id of the session used.
type StorefrontViewer interface {
	Snapshot(sessionID string) domain.Snapshot
	SelectCategory(ctx context.Context, sessionID, category string) (domain.Snapshot, error)
	Search(ctx context.Context, sessionID, term string) (domain.Snapshot, error)
	ToggleCart(ctx context.Context, sessionID string) (domain.Snapshot, error)
}

type CartEditor interface {
	AddToCart(ctx context.Context, sessionID string, productID int64) (domain.Snapshot, error)
	RemoveFromCart(ctx context.Context, sessionID string, productID int64) (domain.Snapshot, error)
	IncreaseQuantity(ctx context.Context, sessionID string, productID int64) (domain.Snapshot, error)
	DecreaseQuantity(ctx context.Context, sessionID string, productID int64) (domain.Snapshot, error)
}

type Storefront interface {
	CatalogFilterer
	StorefrontViewer
	CartEditor
}
