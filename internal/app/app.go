package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/catalogfeed"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type coreService struct {
	loader     *service.CatalogLoader
	sessions   *service.Sessions
	events     *service.CartEventsOutbox
	storefront port.Storefront
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	cartEvents *kafka.CartEventsProducer
	service    coreService
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initCartEvents()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

// initCartEvents connects the cart events stream. The storefront keeps
// working without it, so failures are logged and the stream stays off.
func (app *App) initCartEvents() {
	const op = "App.initCartEvents"
	log := slog.With("op", op)

	brokerCfg := app.cfg.Broker
	if !brokerCfg.Enabled() {
		log.Info("cart events stream is disabled")
		return
	}

	p, err := app.newCartEventsProducer()
	if err != nil {
		log.Error("failed to init cart events stream, continue without it",
			"err", err)
		return
	}
	app.cartEvents = &p
	log.Info("cart events stream is enabled",
		"topic", brokerCfg.CartEventsTopic)
}

func (app *App) newCartEventsProducer() (kafka.CartEventsProducer, error) {
	const op = "App.newCartEventsProducer"

	brokerCfg := app.cfg.Broker

	var tlsCfg *tls.Config
	if brokerCfg.TLS.Enabled() {
		var err error
		tlsCfg, err = adapter.MakeTLSConfig(
			brokerCfg.TLS.CA, brokerCfg.TLS.Cert, brokerCfg.TLS.Key,
		)
		if err != nil {
			return kafka.CartEventsProducer{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	srOpts := []sr.ClientOpt{sr.URLs(brokerCfg.SchemaRegistryURLs...)}
	if tlsCfg != nil {
		srOpts = append(srOpts, sr.HTTPClient(&http.Client{
			Timeout:   10 * time.Second,
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		}))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		return kafka.CartEventsProducer{}, fmt.Errorf("%s: %w", op, err)
	}

	serde, err := schema.NewSerdeCartEventV1(
		app.ctx,
		schema.SubjectOpt(brokerCfg.CartEventsTopic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		return kafka.CartEventsProducer{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := kafka.NewCartEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx, brokerCfg.SeedBrokers, brokerCfg.CartEventsTopic, tlsCfg,
		),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		return kafka.CartEventsProducer{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (app *App) initCoreService() {
	fetcher := catalogfeed.New(app.cfg.Catalog.URL, app.cfg.Catalog.Timeout)
	loader := service.NewCatalogLoader(fetcher)
	sessions := service.NewSessions(app.cfg.Sessions.IdleTTL)

	var events *service.CartEventsOutbox
	if app.cartEvents != nil {
		events = service.NewCartEventsOutbox(app.cartEvents, 0, 0)
	}

	app.service.loader = loader
	app.service.sessions = sessions
	app.service.events = events
	app.service.storefront = service.New(loader, sessions, events)
}

func (app *App) initInboundAdapters() {
	router := httphandler.NewRouter(app.service.storefront)
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, router, app.cfg.HTTPRequestTimeout,
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	app.service.loader.Run(app.ctx)
	go app.service.sessions.Run(app.ctx, app.cfg.Sessions.SweepInterval)
	if app.service.events != nil {
		go app.service.events.Run(app.ctx)
	}
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	if app.service.events != nil {
		app.service.events.Close(ctx)
	}
	if app.cartEvents != nil {
		app.cartEvents.Close()
	}

	slog.Info("application is closed")
}
