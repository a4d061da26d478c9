package catalogfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const maxFeedSize = 16 << 20

var (
	ErrMalformedCatalog = errors.New("malformed catalog")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

var _ port.CatalogFetcher = (*Source)(nil)

// A Source reads the catalog from a remote JSON document.
type Source struct {
	url    string
	client *http.Client
}

// New returns a Source for url. A zero timeout means no client timeout.
func New(url string, timeout time.Duration) Source {
	return Source{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s Source) FetchCatalog(ctx context.Context) (domain.Catalog, error) {
	const op = "Source.FetchCatalog"
	log := slog.With("op", op)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warn("failed to close response body", "err", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnexpectedStatus, res.Status)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("catalog fetched", "url", s.url, "elapsed", time.Since(start))
	return catalog, nil
}
