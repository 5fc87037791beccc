// Package server wires the back-office application together: database,
// object storage, event publishing, services and the HTTP and gRPC servers.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fabrica-p6f5/backoffice/internal/logging"
	"github.com/fabrica-p6f5/backoffice/internal/server/config"
	"github.com/fabrica-p6f5/backoffice/internal/server/events"
	"github.com/fabrica-p6f5/backoffice/internal/server/httpapi"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/repomanager"
	"github.com/fabrica-p6f5/backoffice/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/fabrica-p6f5/backoffice/internal/server/grpc"
)

// openDB is a seam for tests.
var openDB = repomanager.Open

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	publisher  events.Publisher
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

func newPublisher(c *config.Config, logger logging.Logger) events.Publisher {
	if len(c.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}
	return events.NewKafkaProducer(c.KafkaBrokers, c.KafkaTopic, logger)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, os.Stdout)

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.RunMigrations {
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	publisher := newPublisher(c, logger)

	us := services.NewUserService(db, rm, c)
	is := services.NewInvoiceService(db, rm, services.JSONSnapshotSerializer{}, publisher, logger)
	ss := services.NewShipmentService(db, rm)
	ds := services.NewDocumentService(db, rm, c, logger)

	router := httpapi.NewRouter(httpapi.Services{
		Users:     us,
		Invoices:  is,
		Shipments: ss,
		Documents: ds,
	}, logger.With("module", "http"), c.AllowHeaderActor)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		publisher:  publisher,
		httpServer: httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db.PingContext),
	}, nil
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the servers fails. Resources are released before returning.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.httpServer.Run(gctx) })
	g.Go(func() error { return app.grpcServer.Run(gctx) })

	err := g.Wait()

	if cerr := app.publisher.Close(); cerr != nil {
		app.logger.Warn(ctx, "event publisher close failed", "error", cerr)
	}
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Warn(ctx, "db close failed", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
