package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ndbelov/stockwear/config"
	"github.com/ndbelov/stockwear/internal/adapter"
	"github.com/ndbelov/stockwear/internal/adapter/capture"
	"github.com/ndbelov/stockwear/internal/adapter/httphandler"
	"github.com/ndbelov/stockwear/internal/adapter/kafka"
	"github.com/ndbelov/stockwear/internal/adapter/storage"
	"github.com/ndbelov/stockwear/internal/core/port"
	"github.com/ndbelov/stockwear/internal/core/service"
	"github.com/ndbelov/stockwear/pkg/retry"
	"github.com/ndbelov/stockwear/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

const bootstrapAttempts = 5

type App struct {
	cfg        config.Config
	db         storage.SQLDB
	producer   *kafka.ProductUpdatesProducer
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) App {
	app := App{cfg: cfg}

	app.initLogger()
	app.db = app.initStorage(ctx)

	var publisher port.ProductUpdatePublisher
	if cfg.EventsEnabled() {
		producer := app.initProducer(ctx)
		app.producer = &producer
		publisher = producer
	}

	repo := storage.NewProductsRepository(app.db)
	audit := storage.NewEditAuditLog(cfg.AuditLogPath)
	applier := service.NewApplier(repo, publisher, audit)

	device := capture.NewMJPEGDevice(cfg.Camera.StreamURL)
	editor := service.NewEditor(repo, applier, device)

	app.httpServer = app.initHTTPServer(editor)
	return app
}

func (app App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	if app.producer != nil {
		app.producer.Close()
	}
	app.db.Close()

	slog.Info("application is closed")
}

func (app App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app App) initStorage(ctx context.Context) storage.SQLDB {
	const op = "App.initStorage"

	retryCfg := retry.RetryConfig{
		MaxAttempts: bootstrapAttempts,
		Backoff:     retry.ExponentialBackoff(500 * time.Millisecond),
	}

	db, err := retry.DoWithResult(ctx, retryCfg, func() (storage.SQLDB, error) {
		return storage.NewSQLDB(ctx, app.cfg.SQLDB)
	})
	if err != nil {
		app.fallDown(op, err)
	}
	return db
}

func (app App) initProducer(ctx context.Context) kafka.ProductUpdatesProducer {
	const op = "App.initProducer"

	srClient, err := sr.NewClient(sr.URLs(app.cfg.Broker.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	topic := app.cfg.Broker.Topics.ProductUpdates
	serde, err := schema.NewSerdeProductUpdateV1(
		ctx,
		schema.SubjectOpt(topic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	var tlsConfig *tls.Config
	if app.cfg.BrokerTLSEnabled() {
		brokerTLS := app.cfg.Broker.TLS
		tlsConfig = adapter.MakeTLSConfig(
			brokerTLS.CAFile, brokerTLS.CertFile, brokerTLS.KeyFile,
		)
	}

	retryCfg := retry.RetryConfig{
		MaxAttempts: bootstrapAttempts,
		Backoff:     retry.ExponentialBackoff(500 * time.Millisecond),
	}

	producer, err := retry.DoWithResult(ctx, retryCfg,
		func() (kafka.ProductUpdatesProducer, error) {
			return kafka.NewProductUpdatesProducer(
				kafka.ProducerClientOpt(
					ctx, app.cfg.Broker.SeedBrokers, topic, tlsConfig,
				),
				kafka.ProducerEncoderOpt(serde),
			)
		})
	if err != nil {
		app.fallDown(op, err)
	}
	return producer
}

func (app App) initHTTPServer(editor port.ProductEditor) httphandler.HTTPServer {
	mux := http.NewServeMux()
	httphandler.RegisterSessions(mux, editor)

	handler := httphandler.AllowedContent(mux)
	return httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, handler)
}

func (app App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
