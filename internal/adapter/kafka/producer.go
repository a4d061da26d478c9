package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const moneyPlaces = 2

var _ port.CartEventsProducer = (*CartEventsProducer)(nil)

// CartEventsProducer writes [domain.CartEvent] records keyed by session id,
// so events of one visitor keep their order within a partition.
type CartEventsProducer struct {
	cl       ProducerClient
	encoder  Encoder
	retryCfg retry.RetryConfig
}

func NewCartEventsProducer(
	opts ...ProducerOpt,
) (CartEventsProducer, error) {
	const op = "NewCartEventsProducer"

	options, err := applyProducerOpts(op, opts)
	if err != nil {
		return CartEventsProducer{}, err
	}

	return CartEventsProducer{
		cl:      options.cl,
		encoder: options.encoder,
		retryCfg: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(50 * time.Millisecond),
			ShouldRetry: kerr.IsRetriable,
		},
	}, nil
}

func (p CartEventsProducer) Close() {
	const op = "CartEventsProducer.Close"
	log := slog.With("op", op)
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p CartEventsProducer) ProduceCartEvent(
	ctx context.Context, e domain.CartEvent,
) error {
	const op = "CartEventsProducer.ProduceCartEvent"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r, err := p.createRecord(e)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = retry.Do(ctx, p.retryCfg, func() error {
		return p.cl.ProduceSync(ctx, r).FirstErr()
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p CartEventsProducer) createRecord(e domain.CartEvent) (*kgo.Record, error) {
	const op = "CartEventsProducer.createRecord"

	v, err := p.encoder.Encode(p.toSchema(e))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &kgo.Record{Key: []byte(e.SessionID), Value: v}, nil
}

func (CartEventsProducer) toSchema(e domain.CartEvent) (s schema.CartEventV1) {
	s.SessionID = e.SessionID
	s.Kind = string(e.Kind)
	s.ProductID = e.Product.ID
	s.ProductTitle = e.Product.Title
	s.UnitPrice = e.Product.Price.StringFixed(moneyPlaces)
	s.Quantity = int64(e.Quantity)
	s.CartTotal = e.CartTotal.StringFixed(moneyPlaces)
	s.OccurredAt = e.OccurredAt
	return s
}
