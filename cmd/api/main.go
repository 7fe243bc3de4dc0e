package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/stagepay/pos-core/internal/api/http"
	"github.com/stagepay/pos-core/internal/api/http/handlers"
	"github.com/stagepay/pos-core/internal/auth"
	"github.com/stagepay/pos-core/internal/config"
	"github.com/stagepay/pos-core/internal/events"
	"github.com/stagepay/pos-core/internal/observability"
	"github.com/stagepay/pos-core/internal/persistence"
	"github.com/stagepay/pos-core/internal/repository"
	"github.com/stagepay/pos-core/internal/service"
	"github.com/stagepay/pos-core/internal/worker"
)

func main() {
	envFile := flag.String("env-file", "", "dotenv file to load before reading the environment")
	migrate := flag.Bool("migrate", true, "apply SQL migrations on startup")
	addr := flag.String("addr", "", "HTTP listen address, overrides APP_HOST/APP_PORT")
	flag.Parse()

	cfg, err := config.LoadFile(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if flag.CommandLine.Changed("migrate") {
		cfg.Postgres.RunMigrations = *migrate
	}
	listenAddr := cfg.App.Addr()
	if *addr != "" {
		listenAddr = *addr
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var publisher service.EventPublisher
	amqpPublisher := events.NewAMQPPublisher(cfg.AMQP)
	if amqpPublisher != nil {
		publisher = amqpPublisher
		logger.Info("forwarding auth events", zap.String("queue", cfg.AMQP.Queue))
	}
	defer amqpPublisher.Close() //nolint:errcheck

	auditCtx, stopAudit := context.WithCancel(ctx)
	auditDone := worker.StartAuditWorker(auditCtx, service.NewAuditService(dispatcher, logger, publisher))

	userRepo := repository.NewUserRepository()
	tillRepo := repository.NewTillRepository()
	customerRepo := repository.NewCustomerRepository()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Pool:         pg,
		UserRepo:     userRepo,
		TillRepo:     tillRepo,
		CustomerRepo: customerRepo,
		Limiter:      auth.NewLoginLimiter(redis.ClientHandle(), cfg.RateLimit, logger),
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})
	tillService := service.NewTillService(service.TillDependencies{
		Pool:       pg,
		UserRepo:   userRepo,
		TillRepo:   tillRepo,
		Authorizer: authService.Authorizer(),
		Dispatcher: dispatcher,
		Logger:     logger,
		TxRetries:  cfg.Postgres.TxRetries,
	})
	customerService := service.NewCustomerService(pg, customerRepo, authService.Authorizer())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	deps := map[string]handlers.Pinger{"postgres": pg}
	if redis.ClientHandle() != nil {
		deps["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Metrics:  handlers.NewMetricsHandler(metrics),
		Auth:     handlers.NewAuthHandler(authService),
		Terminal: handlers.NewTerminalHandler(authService, tillService),
		Admin:    handlers.NewAdminHandler(tillService),
		Customer: handlers.NewCustomerHandler(authService, customerService),
	})

	go func() {
		if err := app.Listen(listenAddr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}

	stopAudit()
	<-auditDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
