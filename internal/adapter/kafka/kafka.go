package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/storefront/pkg/retry"
	"github.com/twmb/franz-go/pkg/kgo"
)

var ErrTooFewOpts = errors.New("too few options")

var pingRetry = retry.RetryConfig{
	MaxAttempts: 5,
	Backoff:     retry.ConstantBackoff(time.Second),
}

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt dials the seed brokers and pings the cluster, a few
// times while the brokers are still starting. A nil tlsCfg means plaintext.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsCfg *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		if len(seedBrokers) == 0 {
			return errors.New("seed brokers are empty")
		}

		kOpts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.ProducerLinger(5 * time.Millisecond),
		}
		if tlsCfg != nil {
			kOpts = append(kOpts, kgo.DialTLSConfig(tlsCfg))
		}

		cl, err := kgo.NewClient(kOpts...)
		if err != nil {
			return err
		}

		err = retry.Do(ctx, pingRetry, func() error { return cl.Ping(ctx) })
		if err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

// withProducerClient is used by tests to inject the client.
func withProducerClient(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		opts.cl = cl
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

func applyProducerOpts(op string, opts []ProducerOpt) (producerOpts, error) {
	var options producerOpts
	if len(opts) != 2 {
		return options, fmt.Errorf("%s: %w", op, ErrTooFewOpts)
	}

	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return producerOpts{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return options, nil
}
