package worker

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/sla-reporting/internal/cache"
	"github.com/spec-kit/sla-reporting/internal/domain"
	"github.com/spec-kit/sla-reporting/internal/repository"
	"github.com/spec-kit/sla-reporting/internal/service"
)

// ReportDeliverer sends one tenant's report for a window.
type ReportDeliverer interface {
	Now() time.Time
	Deliver(ctx context.Context, tenantID string, window domain.ReportWindow) (*service.DeliveryResult, error)
}

// RunSummary counts the outcomes of one scheduled run.
type RunSummary struct {
	Window  domain.ReportWindow
	Tenants int
	Sent    int
	Skipped int
	Failed  int
	// AlreadySent counts tenants whose window an earlier run or another replica owns.
	AlreadySent int
}

// ReportScheduler delivers the weekly report to every active tenant.
type ReportScheduler struct {
	tenants     repository.TenantRepository
	reports     ReportDeliverer
	ledger      cache.DeliveryLedger
	interval    time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewReportScheduler builds a scheduler.
func NewReportScheduler(tenants repository.TenantRepository, reports ReportDeliverer, ledger cache.DeliveryLedger, interval time.Duration, concurrency int, logger *zap.Logger) *ReportScheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	if ledger == nil {
		ledger = cache.NewRedisDeliveryLedger(nil, 0)
	}
	return &ReportScheduler{
		tenants:     tenants,
		reports:     reports,
		ledger:      ledger,
		interval:    interval,
		concurrency: concurrency,
		logger:      logger,
	}
}

// RunOnce delivers the last week's report to all active tenants whose window
// has not been claimed yet. A tenant failure is logged, releases the claim and
// does not stop the others; only listing tenants fails the run.
func (s *ReportScheduler) RunOnce(ctx context.Context) (RunSummary, error) {
	window := domain.WeeklyWindow(s.reports.Now())
	summary := RunSummary{Window: window}

	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return summary, err
	}
	summary.Tenants = len(tenants)

	var sent, skipped, failed, already atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, tenant := range tenants {
		tenant := tenant
		g.Go(func() error {
			claimed, err := s.ledger.Claim(gctx, tenant.ID, window)
			if err != nil {
				failed.Add(1)
				s.logger.Error("no report sent: delivery ledger unavailable",
					zap.String("tenant_id", tenant.ID), zap.Error(err))
				return nil
			}
			if !claimed {
				already.Add(1)
				return nil
			}

			result, err := s.reports.Deliver(gctx, tenant.ID, window)
			switch {
			case err != nil:
				failed.Add(1)
				if rerr := s.ledger.Release(context.WithoutCancel(gctx), tenant.ID, window); rerr != nil {
					s.logger.Warn("delivery ledger release failed", zap.String("tenant_id", tenant.ID), zap.Error(rerr))
				}
				s.logger.Error("no report sent",
					zap.String("tenant_id", tenant.ID),
					zap.String("tenant", tenant.Name),
					zap.Error(err))
			case result.Skipped:
				skipped.Add(1)
			default:
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Sent = int(sent.Load())
	summary.Skipped = int(skipped.Load())
	summary.Failed = int(failed.Load())
	summary.AlreadySent = int(already.Load())
	s.logger.Info("scheduled report run finished",
		zap.Time("window_start", window.Start),
		zap.Time("window_end", window.End),
		zap.Int("tenants", summary.Tenants),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("already_sent", summary.AlreadySent))
	return summary, nil
}

// NextRun returns the first interval boundary after now. Boundaries are
// multiples of the interval since the zero time, so a 168h interval fires at
// Monday 00:00 UTC and a 24h interval at midnight UTC.
func NextRun(now time.Time, interval time.Duration) time.Time {
	return now.UTC().Truncate(interval).Add(interval)
}

// Start waits for each interval boundary and runs once per boundary until ctx
// is done. It does not run at startup.
func (s *ReportScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Warn("report scheduler disabled: non-positive interval")
		return
	}

	for {
		now := s.reports.Now()
		next := NextRun(now, s.interval)
		s.logger.Info("next scheduled report run", zap.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("report scheduler stopped")
			return
		case <-timer.C:
		}

		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled report run failed", zap.Error(err))
		}
	}
}
