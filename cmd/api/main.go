package main

import (
	"context"
	"net/http"

	"github.com/faa999-tech/telebotshop/internal/api"
	"github.com/faa999-tech/telebotshop/internal/api/middleware"
	v1 "github.com/faa999-tech/telebotshop/internal/api/v1"
	"github.com/faa999-tech/telebotshop/internal/config"
	"github.com/faa999-tech/telebotshop/internal/database"
	"github.com/faa999-tech/telebotshop/internal/metrics"
	"github.com/faa999-tech/telebotshop/internal/publishers"
	"github.com/faa999-tech/telebotshop/internal/repository"
	"github.com/faa999-tech/telebotshop/internal/service"
	"github.com/faa999-tech/telebotshop/internal/session"
	"github.com/faa999-tech/telebotshop/pkg/httpclient"
	"github.com/faa999-tech/telebotshop/pkg/mq"
	"github.com/faa999-tech/telebotshop/pkg/tripay"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,
			metrics.NewMetrics,
			database.NewConnection,
			repository.NewInventoryRepository,
			repository.NewLedgerRepository,
			repository.NewTransactionRepository,
			repository.NewPendingPaymentRepository,
			repository.NewSettingRepository,
			repository.NewTransactionManager,
			newHTTPClient,
			service.NewGatewayCredentials,
			newGatewayClient,
			newNotifier,
			service.NewSettlementService,
			service.NewReconcilerService,
			newDraftStore,
			v1.NewHandler,
			newFiberApp,
		),
		fx.Invoke(startServer, startMetricsServer),
	).Run()
}

func newFiberApp(m *metrics.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
	})
	app.Use(metrics.HTTPMetricsMiddleware(m))
	return app
}

func newHTTPClient(cfg *config.Config) httpclient.HTTPClient {
	return httpclient.NewHTTPClient(cfg.Gateway.Timeout)
}

func newGatewayClient(cfg *config.Config, creds tripay.CredentialsProvider, client httpclient.HTTPClient) tripay.Client {
	return tripay.NewClient(tripay.Config{
		Timeout:   cfg.Gateway.Timeout,
		ReturnURL: cfg.Gateway.ReturnURL,
	}, creds, client)
}

func newDraftStore(lc fx.Lifecycle) *session.Store {
	store := session.NewStore(session.DefaultTTL)

	janitorCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			store.StartJanitor(janitorCtx, session.DefaultTTL)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})

	return store
}

// newNotifier wires the RabbitMQ publisher when the broker is enabled and
// falls back to a no-op otherwise.
func newNotifier(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) (service.Notifier, error) {
	if !cfg.RabbitMQ.Enable {
		return service.NewNopNotifier(), nil
	}

	conn, err := mq.NewConnection(mq.Config{URL: cfg.RabbitMQ.URL}, logger)
	if err != nil {
		return nil, err
	}

	if err := conn.DeclareTopology([]string{cfg.RabbitMQ.Queue}); err != nil {
		return nil, err
	}

	publisher, err := conn.CreatePublisher()
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return conn.Close()
		},
	})

	return publishers.NewPaymentNotifier(publisher, cfg.RabbitMQ.Queue, logger), nil
}

func startServer(app *fiber.App, handler *v1.Handler, cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) {
	api.SetupRoutes(app, handler)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := app.Listen(cfg.API.Port); err != nil {
					logger.Error("API server stopped", zap.Error(err))
				}
			}()
			logger.Info("API server started", zap.String("port", cfg.API.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

func startMetricsServer(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Port, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Metrics server stopped", zap.Error(err))
				}
			}()
			logger.Info("Metrics server started", zap.String("port", cfg.Metrics.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
