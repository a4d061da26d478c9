package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCartEventsProducer struct {
	mock.Mock
}

func (p *MockCartEventsProducer) ProduceCartEvent(
	ctx context.Context, evt domain.CartEvent,
) error {
	args := p.Called(ctx, evt)
	return args.Error(0)
}

type staticCatalog domain.Catalog

func (c staticCatalog) Catalog() domain.Catalog { return domain.Catalog(c) }

func (c staticCatalog) Loaded() bool { return c != nil }

type testService struct {
	service.Service
	events *service.CartEventsOutbox
}

// drain waits until every enqueued event reached the producer.
func (s testService) drain(t *testing.T) {
	t.Helper()
	if s.events != nil {
		s.events.Close(t.Context())
	}
}

func newTestService(
	t *testing.T, producer *MockCartEventsProducer,
) (testService, string) {
	t.Helper()
	sessions := service.NewSessions(time.Hour)

	var ts testService
	if producer == nil {
		ts.Service = service.New(staticCatalog(testCatalog()), sessions, nil)
	} else {
		ts.events = service.NewCartEventsOutbox(producer, 0, time.Second)
		go ts.events.Run(t.Context())
		t.Cleanup(func() { ts.events.Close(context.Background()) })
		ts.Service = service.New(staticCatalog(testCatalog()), sessions, ts.events)
	}
	return ts, openSession(t, ts.Service)
}

func openSession(t *testing.T, s service.Service) string {
	t.Helper()
	snap, err := s.Search(t.Context(), "", "")
	require.NoError(t, err)
	require.NotEmpty(t, snap.SessionID)
	return snap.SessionID
}

func eventOf(kind domain.CartEventKind, productID int64, quantity int) any {
	return mock.MatchedBy(func(evt domain.CartEvent) bool {
		return evt.Kind == kind &&
			evt.Product.ID == productID &&
			evt.Quantity == quantity &&
			!evt.OccurredAt.IsZero()
	})
}

func TestServiceSnapshot(t *testing.T) {
	s, sid := newTestService(t, nil)

	snap := s.Snapshot(sid)
	assert.Equal(t, sid, snap.SessionID)
	assert.True(t, snap.CatalogLoaded)
	assert.Equal(t, domain.AllCategories, snap.Category)
	assert.Empty(t, snap.SearchTerm)
	assert.Equal(t, testCatalog(), snap.Displayed)
	assert.Zero(t, snap.Cart.Len())
	assert.False(t, snap.CartVisible)
}

func TestServiceSessionsOpenOnChange(t *testing.T) {
	sessions := service.NewSessions(time.Hour)
	s := service.New(staticCatalog(testCatalog()), sessions, nil)

	t.Run("ReadDoesNotOpen", func(t *testing.T) {
		snap := s.Snapshot("unknown")
		assert.Empty(t, snap.SessionID)
		assert.Equal(t, domain.AllCategories, snap.Category)
		assert.Equal(t, testCatalog(), snap.Displayed)
		assert.Zero(t, sessions.Len())
	})

	t.Run("ChangeOpens", func(t *testing.T) {
		snap, err := s.AddToCart(t.Context(), "expired", 1)
		require.NoError(t, err)
		require.NotEmpty(t, snap.SessionID)
		assert.NotEqual(t, "expired", snap.SessionID)
		assert.Equal(t, 1, sessions.Len())

		again, err := s.IncreaseQuantity(t.Context(), snap.SessionID, 1)
		require.NoError(t, err)
		assert.Equal(t, snap.SessionID, again.SessionID)
		q, _ := again.Cart.Quantity(1)
		assert.Equal(t, 2, q)
	})
}

func TestServiceFilter(t *testing.T) {
	s, sid := newTestService(t, nil)
	ctx := t.Context()

	t.Run("Stateless", func(t *testing.T) {
		view := s.FilterCatalog(domain.AllCategories, "acme")
		require.Len(t, view, 1)
		assert.Equal(t, "Men", view[0].Name)
	})

	t.Run("CategoryThenSearch", func(t *testing.T) {
		snap, err := s.SelectCategory(ctx, sid, "Women")
		require.NoError(t, err)
		require.Len(t, snap.Displayed, 1)
		assert.Equal(t, "Women", snap.Displayed[0].Name)

		snap, err = s.Search(ctx, sid, "acme")
		require.NoError(t, err)
		assert.Empty(t, snap.Displayed)
		assert.Equal(t, "acme", snap.SearchTerm)
		assert.Equal(t, "Women", snap.Category)
	})

	t.Run("SearchRecomputesFromFullCandidateList", func(t *testing.T) {
		_, err := s.SelectCategory(ctx, sid, domain.AllCategories)
		require.NoError(t, err)

		_, err = s.Search(ctx, sid, "zzz")
		require.NoError(t, err)

		snap, err := s.Search(ctx, sid, "")
		require.NoError(t, err)
		assert.Equal(t, testCatalog(), snap.Displayed)
	})
}

func TestServiceToggleCart(t *testing.T) {
	s, sid := newTestService(t, nil)

	snap, err := s.ToggleCart(t.Context(), sid)
	require.NoError(t, err)
	assert.True(t, snap.CartVisible)

	snap, err = s.ToggleCart(t.Context(), sid)
	require.NoError(t, err)
	assert.False(t, snap.CartVisible)
}

func TestServiceCart(t *testing.T) {
	t.Run("AddTwiceAndTotal", func(t *testing.T) {
		producer := new(MockCartEventsProducer)
		producer.On("ProduceCartEvent", mock.Anything, eventOf(domain.CartItemAdded, 1, 1)).
			Return(nil).Once()
		producer.On("ProduceCartEvent", mock.Anything, eventOf(domain.CartItemAdded, 1, 2)).
			Return(nil).Once()
		producer.On("ProduceCartEvent", mock.Anything, eventOf(domain.CartItemAdded, 2, 1)).
			Return(nil).Once()

		s, sid := newTestService(t, producer)
		ctx := t.Context()

		_, err := s.AddToCart(ctx, sid, 1)
		require.NoError(t, err)
		_, err = s.AddToCart(ctx, sid, 1)
		require.NoError(t, err)
		snap, err := s.AddToCart(ctx, sid, 2)
		require.NoError(t, err)

		assert.Equal(t, 2, snap.Cart.Len())
		assert.Equal(t, 3, snap.Cart.ItemCount())
		assert.Equal(t, "25.50", snap.Cart.TotalPrice().StringFixed(2))
		s.drain(t)
		producer.AssertExpectations(t)
	})

	t.Run("AddUnknownProduct", func(t *testing.T) {
		producer := new(MockCartEventsProducer)
		s, sid := newTestService(t, producer)

		_, err := s.AddToCart(t.Context(), sid, 42)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		s.drain(t)
		producer.AssertNotCalled(t, "ProduceCartEvent", mock.Anything, mock.Anything)
	})

	t.Run("DecreaseAtOneIsNoop", func(t *testing.T) {
		producer := new(MockCartEventsProducer)
		producer.On("ProduceCartEvent", mock.Anything, eventOf(domain.CartItemAdded, 1, 1)).
			Return(nil).Once()

		s, sid := newTestService(t, producer)
		ctx := t.Context()

		_, err := s.AddToCart(ctx, sid, 1)
		require.NoError(t, err)

		snap, err := s.DecreaseQuantity(ctx, sid, 1)
		require.NoError(t, err)
		q, ok := snap.Cart.Quantity(1)
		require.True(t, ok)
		assert.Equal(t, 1, q)
		s.drain(t)
		producer.AssertExpectations(t)
	})

	t.Run("IncreaseDecreaseRemove", func(t *testing.T) {
		producer := new(MockCartEventsProducer)
		producer.On("ProduceCartEvent", mock.Anything, eventOf(domain.CartItemAdded, 2, 1)).
			Return(nil).Once()
		producer.On("ProduceCartEvent", mock.Anything, eventOf(domain.CartQuantityIncreased, 2, 2)).
			Return(nil).Once()
		producer.On("ProduceCartEvent", mock.Anything, eventOf(domain.CartQuantityDecreased, 2, 1)).
			Return(nil).Once()
		producer.On("ProduceCartEvent", mock.Anything, mock.MatchedBy(func(evt domain.CartEvent) bool {
			return evt.Kind == domain.CartItemRemoved &&
				evt.Product.Title == "Dress" &&
				evt.Quantity == 0 &&
				evt.CartTotal.IsZero()
		})).Return(nil).Once()

		s, sid := newTestService(t, producer)
		ctx := t.Context()

		_, err := s.AddToCart(ctx, sid, 2)
		require.NoError(t, err)
		snap, err := s.IncreaseQuantity(ctx, sid, 2)
		require.NoError(t, err)
		assert.Equal(t, "11.00", snap.Cart.TotalPrice().StringFixed(2))

		_, err = s.DecreaseQuantity(ctx, sid, 2)
		require.NoError(t, err)
		snap, err = s.RemoveFromCart(ctx, sid, 2)
		require.NoError(t, err)
		assert.Zero(t, snap.Cart.Len())

		s.drain(t)
		producer.AssertExpectations(t)
	})

	t.Run("MissingIDsAreNoops", func(t *testing.T) {
		producer := new(MockCartEventsProducer)
		s, sid := newTestService(t, producer)
		ctx := t.Context()

		for _, fn := range []func(context.Context, string, int64) (domain.Snapshot, error){
			s.RemoveFromCart, s.IncreaseQuantity, s.DecreaseQuantity,
		} {
			snap, err := fn(ctx, sid, 99)
			require.NoError(t, err)
			assert.Zero(t, snap.Cart.Len())
		}
		s.drain(t)
		producer.AssertNotCalled(t, "ProduceCartEvent", mock.Anything, mock.Anything)
	})

	t.Run("PublishFailureDoesNotFailOperation", func(t *testing.T) {
		producer := new(MockCartEventsProducer)
		producer.On("ProduceCartEvent", mock.Anything, mock.Anything).
			Return(errors.New("broker unavailable"))

		s, sid := newTestService(t, producer)
		snap, err := s.AddToCart(t.Context(), sid, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, snap.Cart.Len())

		s.drain(t)
		producer.AssertNumberOfCalls(t, "ProduceCartEvent", 1)
	})

	t.Run("BlockingProducerDoesNotBlockChanges", func(t *testing.T) {
		producer := new(MockCartEventsProducer)
		release := make(chan time.Time)
		producer.On("ProduceCartEvent", mock.Anything, mock.Anything).
			WaitUntil(release).Return(nil)

		s, sid := newTestService(t, producer)
		defer close(release)

		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()
		for range 3 {
			_, err := s.AddToCart(ctx, sid, 1)
			require.NoError(t, err)
		}

		q, _ := s.Snapshot(sid).Cart.Quantity(1)
		assert.Equal(t, 3, q)
	})

	t.Run("EventsKeepChangeOrder", func(t *testing.T) {
		producer := new(MockCartEventsProducer)
		var (
			mu         sync.Mutex
			quantities []int
		)
		producer.On("ProduceCartEvent", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				mu.Lock()
				defer mu.Unlock()
				quantities = append(quantities, args.Get(1).(domain.CartEvent).Quantity)
			}).Return(nil)

		s, sid := newTestService(t, producer)
		_, err := s.AddToCart(t.Context(), sid, 1)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.IncreaseQuantity(t.Context(), sid, 1)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		s.drain(t)

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, quantities, 21)
		for i, q := range quantities {
			assert.Equal(t, i+1, q)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		s, sid := newTestService(t, nil)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := s.AddToCart(ctx, sid, 1)
		assert.ErrorIs(t, err, context.Canceled)

		assert.Zero(t, s.Snapshot(sid).Cart.Len())
	})

	t.Run("SessionsAreIsolated", func(t *testing.T) {
		s, sid := newTestService(t, nil)
		other := openSession(t, s.Service)

		_, err := s.AddToCart(t.Context(), sid, 1)
		require.NoError(t, err)

		assert.Zero(t, s.Snapshot(other).Cart.Len())
	})
}

func TestServiceBeforeCatalogLoaded(t *testing.T) {
	s := service.New(staticCatalog(nil), service.NewSessions(0), nil)
	sid := openSession(t, s)

	snap := s.Snapshot(sid)
	assert.False(t, snap.CatalogLoaded)
	assert.Empty(t, snap.Displayed)

	_, err := s.AddToCart(t.Context(), sid, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
