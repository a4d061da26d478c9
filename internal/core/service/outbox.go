package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const (
	defaultOutboxSize     = 1024
	defaultProduceTimeout = 10 * time.Second
)

// CartEventsOutbox queues cart events off the request path and hands them
// to the producer one at a time, in enqueue order.
//
// A nil *CartEventsOutbox drops every event.
type CartEventsOutbox struct {
	producer       port.CartEventsProducer
	produceTimeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan domain.CartEvent
	done   chan struct{}
}

// NewCartEventsOutbox holds up to size pending events. Every produce call
// gets produceTimeout. Non-positive values fall back to defaults.
func NewCartEventsOutbox(
	producer port.CartEventsProducer, size int, produceTimeout time.Duration,
) *CartEventsOutbox {
	if size <= 0 {
		size = defaultOutboxSize
	}
	if produceTimeout <= 0 {
		produceTimeout = defaultProduceTimeout
	}
	return &CartEventsOutbox{
		producer:       producer,
		produceTimeout: produceTimeout,
		queue:          make(chan domain.CartEvent, size),
		done:           make(chan struct{}),
	}
}

// Enqueue never blocks. It reports whether the event was accepted; events
// are dropped when the queue is full or the outbox is closed.
func (o *CartEventsOutbox) Enqueue(evt domain.CartEvent) bool {
	const op = "CartEventsOutbox.Enqueue"

	if o == nil {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}

	select {
	case o.queue <- evt:
		return true
	default:
		slog.Warn("cart events queue is full, event dropped",
			"op", op, "kind", evt.Kind, "productID", evt.Product.ID)
		return false
	}
}

// Run produces queued events until the outbox is closed and drained.
// Cancelling ctx does not cut in-flight produce calls short; they are
// bounded by the produce timeout.
func (o *CartEventsOutbox) Run(ctx context.Context) {
	defer close(o.done)
	for evt := range o.queue {
		o.produce(ctx, evt)
	}
}

func (o *CartEventsOutbox) produce(ctx context.Context, evt domain.CartEvent) {
	const op = "CartEventsOutbox.produce"

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.produceTimeout)
	defer cancel()

	if err := o.producer.ProduceCartEvent(ctx, evt); err != nil {
		slog.Warn("failed to publish cart event",
			"op", op, "kind", evt.Kind, "productID", evt.Product.ID, "err", err)
	}
}

// Close stops accepting events and waits until the queued ones are
// produced or ctx is done.
func (o *CartEventsOutbox) Close(ctx context.Context) {
	const op = "CartEventsOutbox.Close"
	log := slog.With("op", op)

	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	select {
	case <-o.done:
		log.Info("cart events outbox is drained")
	case <-ctx.Done():
		log.Warn("cart events outbox closed before drained",
			"pending", len(o.queue), "err", ctx.Err())
	}
}
