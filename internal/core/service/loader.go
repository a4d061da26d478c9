package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CatalogReader = (*CatalogLoader)(nil)

// A CatalogLoader requests the catalog once and publishes it to readers.
//
// Until a load succeeds readers see an empty catalog.
type CatalogLoader struct {
	fetcher port.CatalogFetcher
	catalog atomic.Pointer[domain.Catalog]
	once    sync.Once
	done    chan struct{}
}

func NewCatalogLoader(fetcher port.CatalogFetcher) *CatalogLoader {
	return &CatalogLoader{
		fetcher: fetcher,
		done:    make(chan struct{}),
	}
}

// Run starts the single catalog request in a separate goroutine.
// Subsequent calls do nothing.
//
// A failed request is logged and leaves the catalog in its prior state.
func (l *CatalogLoader) Run(ctx context.Context) {
	const op = "CatalogLoader.Run"

	l.once.Do(func() {
		go func() {
			defer close(l.done)
			if err := l.Load(ctx); err != nil {
				slog.Error("failed to load catalog", "op", op, "err", err)
			}
		}()
	})
}

// Done is closed when the request started by Run has finished.
func (l *CatalogLoader) Done() <-chan struct{} {
	return l.done
}

// Load fetches the catalog and stores it. Errors wrap [domain.ErrCatalogLoad].
//
// A response arriving after ctx is cancelled is discarded.
func (l *CatalogLoader) Load(ctx context.Context) error {
	const op = "CatalogLoader.Load"
	log := slog.With("op", op)

	catalog, err := l.fetcher.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrCatalogLoad, err)
	}

	if ctx.Err() != nil {
		log.Info("catalog arrived after shutdown, discarded")
		return nil
	}

	l.catalog.Store(&catalog)
	log.Info("catalog loaded",
		"nCategories", len(catalog), "nProducts", catalog.NumProducts())
	return nil
}

func (l *CatalogLoader) Catalog() domain.Catalog {
	if c := l.catalog.Load(); c != nil {
		return *c
	}
	return nil
}

func (l *CatalogLoader) Loaded() bool {
	return l.catalog.Load() != nil
}
