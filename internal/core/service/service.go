package service

import (
	"context"
	"fmt"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.Storefront = (*Service)(nil)

type Service struct {
	catalog  port.CatalogReader
	sessions *Sessions
	events   *CartEventsOutbox
	now      func() time.Time
}

// New returns the storefront service. A nil events outbox disables cart
// events.
func New(
	catalog port.CatalogReader,
	sessions *Sessions,
	events *CartEventsOutbox,
) Service {
	return Service{
		catalog:  catalog,
		sessions: sessions,
		events:   events,
		now:      time.Now,
	}
}

func (s Service) FilterCatalog(category, term string) domain.Catalog {
	return s.catalog.Catalog().Filter(category, term)
}

// Snapshot returns the state of the session. Unknown ids get the state of
// a fresh visitor with an empty SessionID; reading never opens a session.
func (s Service) Snapshot(sessionID string) domain.Snapshot {
	sess, ok := s.sessions.get(sessionID)
	if !ok {
		return s.snapshot(newSession(""))
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshot(sess)
}

func (s Service) SelectCategory(
	ctx context.Context, sessionID, category string,
) (domain.Snapshot, error) {
	const op = "Service.SelectCategory"
	return s.update(ctx, op, sessionID, func(sess *session) {
		sess.category = category
	})
}

func (s Service) Search(
	ctx context.Context, sessionID, term string,
) (domain.Snapshot, error) {
	const op = "Service.Search"
	return s.update(ctx, op, sessionID, func(sess *session) {
		sess.searchTerm = term
	})
}

func (s Service) ToggleCart(
	ctx context.Context, sessionID string,
) (domain.Snapshot, error) {
	const op = "Service.ToggleCart"
	return s.update(ctx, op, sessionID, func(sess *session) {
		sess.cartVisible = !sess.cartVisible
	})
}

func (s Service) AddToCart(
	ctx context.Context, sessionID string, productID int64,
) (domain.Snapshot, error) {
	const op = "Service.AddToCart"

	product, ok := s.catalog.Catalog().Product(productID)
	if !ok {
		return domain.Snapshot{}, fmt.Errorf(
			"%s: id %d: %w", op, productID, domain.ErrProductNotFound,
		)
	}

	return s.updateCart(ctx, op, sessionID, productID, domain.CartItemAdded,
		func(c domain.Cart) domain.Cart { return c.Add(product) },
	)
}

func (s Service) RemoveFromCart(
	ctx context.Context, sessionID string, productID int64,
) (domain.Snapshot, error) {
	const op = "Service.RemoveFromCart"
	return s.updateCart(ctx, op, sessionID, productID, domain.CartItemRemoved,
		func(c domain.Cart) domain.Cart { return c.Remove(productID) },
	)
}

func (s Service) IncreaseQuantity(
	ctx context.Context, sessionID string, productID int64,
) (domain.Snapshot, error) {
	const op = "Service.IncreaseQuantity"
	return s.updateCart(ctx, op, sessionID, productID, domain.CartQuantityIncreased,
		func(c domain.Cart) domain.Cart { return c.Increase(productID) },
	)
}

func (s Service) DecreaseQuantity(
	ctx context.Context, sessionID string, productID int64,
) (domain.Snapshot, error) {
	const op = "Service.DecreaseQuantity"
	return s.updateCart(ctx, op, sessionID, productID, domain.CartQuantityDecreased,
		func(c domain.Cart) domain.Cart { return c.Decrease(productID) },
	)
}

// update applies fn to the session, opening it first when sessionID is
// unknown. The returned snapshot carries the id of the session used.
func (s Service) update(
	ctx context.Context, op, sessionID string, fn func(*session),
) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	sess := s.sessions.open(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
	return s.snapshot(sess), nil
}

// updateCart applies fn to the session cart and enqueues an event when
// the quantity of the product actually changed. Enqueueing happens under
// the session lock, so events of one session keep the order of changes.
func (s Service) updateCart(
	ctx context.Context,
	op, sessionID string,
	productID int64,
	kind domain.CartEventKind,
	fn func(domain.Cart) domain.Cart,
) (domain.Snapshot, error) {
	return s.update(ctx, op, sessionID, func(sess *session) {
		before, _ := sess.cart.Quantity(productID)
		product, found := cartProduct(sess.cart, productID)
		sess.cart = fn(sess.cart)
		after, _ := sess.cart.Quantity(productID)
		if before == after {
			return
		}
		if !found {
			product, _ = cartProduct(sess.cart, productID)
		}

		s.events.Enqueue(domain.CartEvent{
			SessionID:  sess.id,
			Kind:       kind,
			Product:    product,
			Quantity:   after,
			CartTotal:  sess.cart.TotalPrice(),
			OccurredAt: s.now(),
		})
	})
}

func cartProduct(c domain.Cart, productID int64) (domain.Product, bool) {
	for _, e := range c.Entries() {
		if e.Product.ID == productID {
			return e.Product, true
		}
	}
	return domain.Product{}, false
}

// snapshot expects sess.mu to be held.
func (s Service) snapshot(sess *session) domain.Snapshot {
	return domain.Snapshot{
		SessionID:     sess.id,
		CatalogLoaded: s.catalog.Loaded(),
		Category:      sess.category,
		SearchTerm:    sess.searchTerm,
		Displayed:     s.FilterCatalog(sess.category, sess.searchTerm),
		Cart:          sess.cart,
		CartVisible:   sess.cartVisible,
	}
}
