package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence"
	"github.com/iota-uz/workbook-import/modules/importer/presentation/controllers"
	"github.com/iota-uz/workbook-import/modules/importer/services"
	"github.com/iota-uz/workbook-import/pkg/configuration"
	"github.com/iota-uz/workbook-import/pkg/httpapi"
	"github.com/iota-uz/workbook-import/pkg/logging"
	"github.com/iota-uz/workbook-import/pkg/metrics"
	"github.com/iota-uz/workbook-import/pkg/middleware"
	"github.com/iota-uz/workbook-import/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.Endpoint,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to " + conf.OpenTelemetry.Endpoint)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	db, err := persistence.Open(ctx, conf.Database, logger)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("close database")
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		panic(err)
	}

	deps := services.Deps{
		Logger:  logger,
		Now:     time.Now,
		Options: conf.Import,
	}
	controllerList := []server.Controller{
		controllers.NewImportController(deps),
		metrics.NewHealthController(),
	}
	if conf.Prometheus.Enabled {
		controllerList = append(controllerList, metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(logger, middleware.LoggerOptions{RequestIDHeader: conf.RequestIDHeader}),
		middleware.WithDB(db.DB),
		middleware.WithPool(db.Pool()),
	}
	if conf.RateLimit.Enabled {
		limit, err := middleware.RateLimit(conf.RateLimit.Rate, middleware.NewMemoryStore(), logger)
		if err != nil {
			log.Fatalf("failed to configure rate limiting: %v", err)
		}
		middlewares = append(middlewares, limit)
	}

	serverInstance := server.NewHTTPServer(controllerList, middlewares, httpapi.NotFound(), httpapi.MethodNotAllowed())
	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
