package commands

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

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

var (
	// Version is set at build time via ldflags.
	Version = "dev"

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "slareport",
	Short: "Generate and deliver SLA compliance reports",
	Long: `slareport computes response and resolution SLA compliance for a tenant's
support tickets over a reporting window and mails the rendered report to the
tenant's administrators and HR managers.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		logger, err = observability.NewLogger(cfg.Logger)
		if err != nil {
			log.Fatalf("failed to init logger: %v", err)
		}
		logger.Debug("slareport starting", zap.String("version", Version))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newRunCmd(), newScheduleCmd(), newHashSecretCmd())
}

// runtime holds the wired collaborators for a command invocation.
type runtime struct {
	reports *service.ReportService
	tenants repository.TenantRepository
	ledger  cache.DeliveryLedger
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func bootstrap(ctx context.Context) (*runtime, error) {
	rt := &runtime{}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, pg.Close)

	redis := persistence.NewRedis(cfg.Redis, logger)
	rt.closers = append(rt.closers, redis.Close)

	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Mail))

	pool := pg.PoolHandle()
	rt.tenants = repository.NewTenantRepository(pool)
	rt.ledger = cache.NewRedisDeliveryLedger(redis.Client, cfg.Report.SentLedgerTTL())
	rt.reports = service.NewReportService(*cfg, service.ReportDependencies{
		Tickets:    repository.NewTicketRepository(pool),
		Recipients: repository.NewRecipientRepository(pool),
		Cache:      cache.NewRedisReportCache(redis.Client, cfg.Report.CacheTTL()),
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Logger:     logger,
	})
	return rt, nil
}
