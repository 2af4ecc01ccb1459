package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-reporting/internal/api/http"
	"github.com/spec-kit/sla-reporting/internal/api/http/handlers"
	"github.com/spec-kit/sla-reporting/internal/auth"
	"github.com/spec-kit/sla-reporting/internal/cache"
	"github.com/spec-kit/sla-reporting/internal/config"
	"github.com/spec-kit/sla-reporting/internal/events"
	"github.com/spec-kit/sla-reporting/internal/mail"
	"github.com/spec-kit/sla-reporting/internal/observability"
	"github.com/spec-kit/sla-reporting/internal/persistence"
	"github.com/spec-kit/sla-reporting/internal/repository"
	"github.com/spec-kit/sla-reporting/internal/service"
	"github.com/spec-kit/sla-reporting/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		logger.Fatal("failed to init mail transport", zap.Error(err))
	}

	pool := pg.PoolHandle()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Mail))

	reportService := service.NewReportService(*cfg, service.ReportDependencies{
		Tickets:    repository.NewTicketRepository(pool),
		Recipients: repository.NewRecipientRepository(pool),
		Cache:      cache.NewRedisReportCache(redis.Client, cfg.Report.CacheTTL()),
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	authService := service.NewAuthService(cfg.Auth)

	if cfg.Report.ScheduleEnabled {
		ledger := cache.NewRedisDeliveryLedger(redis.Client, cfg.Report.SentLedgerTTL())
		scheduler := worker.NewReportScheduler(repository.NewTenantRepository(pool), reportService, ledger,
			cfg.Report.Interval(), cfg.Report.Concurrency, logger)
		go scheduler.Start(ctx)
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Reports:        handlers.NewReportsHandler(reportService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
