package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-reporting/internal/cache"
	"github.com/spec-kit/sla-reporting/internal/config"
	"github.com/spec-kit/sla-reporting/internal/domain"
	"github.com/spec-kit/sla-reporting/internal/events"
	"github.com/spec-kit/sla-reporting/internal/mail"
	"github.com/spec-kit/sla-reporting/internal/observability"
	"github.com/spec-kit/sla-reporting/internal/report"
	"github.com/spec-kit/sla-reporting/internal/repository"
	"github.com/spec-kit/sla-reporting/internal/sla"
	apperrors "github.com/spec-kit/sla-reporting/pkg/util/errorutil"
)

// GeneratedReport is a compliance report together with its run metadata.
type GeneratedReport struct {
	RunID       string
	TenantID    string
	Window      domain.ReportWindow
	Report      domain.ComplianceReport
	Cached      bool
	GeneratedAt time.Time
}

// DeliveryResult describes the outcome of a Deliver call.
type DeliveryResult struct {
	Generated  *GeneratedReport
	Recipients []string
	Attempts   int
	Transport  string
	// Skipped is set when the tenant has no recipients; nothing was sent.
	Skipped bool
}

// ReportDependencies encapsulates collaborators of the report service.
type ReportDependencies struct {
	Tickets    repository.TicketRepository
	Recipients repository.RecipientRepository
	Cache      cache.ReportCache
	Mailer     mail.Mailer
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// ReportService fetches ticket windows, aggregates and delivers compliance reports.
type ReportService struct {
	tickets    repository.TicketRepository
	recipients repository.RecipientRepository
	cache      cache.ReportCache
	mailer     mail.Mailer
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time

	from          string
	roles         []domain.StaffRole
	retry         mail.RetryPolicy
	fetchTimeout  time.Duration
	auditBreaches bool
}

// NewReportService builds the service.
func NewReportService(cfg config.Config, deps ReportDependencies) *ReportService {
	roles := make([]domain.StaffRole, 0, len(cfg.Report.RecipientRoles))
	for _, r := range cfg.Report.RecipientRoles {
		roles = append(roles, domain.StaffRole(r))
	}
	s := &ReportService{
		tickets:       deps.Tickets,
		recipients:    deps.Recipients,
		cache:         deps.Cache,
		mailer:        deps.Mailer,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		now:           deps.Now,
		from:          cfg.Mail.From,
		roles:         roles,
		retry:         mail.RetryPolicy{MaxAttempts: cfg.Mail.MaxAttempts, Backoff: cfg.Mail.Backoff()},
		fetchTimeout:  cfg.Report.FetchTimeout(),
		auditBreaches: cfg.Report.AuditBreaches,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.cache == nil {
		s.cache = cache.NewRedisReportCache(nil, 0)
	}
	return s
}

// Now returns the service clock's current time.
func (s *ReportService) Now() time.Time {
	return s.now()
}

// Generate returns the compliance report for a tenant window, from cache when available.
func (s *ReportService) Generate(ctx context.Context, tenantID string, window domain.ReportWindow) (*GeneratedReport, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, apperrors.NewValidationError("tenant_id required", nil)
	}
	if err := window.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{
			"from": window.Start, "to": window.End,
		})
	}

	start := s.now()
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("tenant_id", tenantID), zap.String("run_id", runID))

	if cached, ok, err := s.cache.Get(ctx, tenantID, window); err != nil {
		logger.Warn("report cache read failed", zap.Error(err))
	} else if ok {
		generated := &GeneratedReport{RunID: runID, TenantID: tenantID, Window: window, Report: *cached, Cached: true, GeneratedAt: start}
		s.publish(ctx, logger, events.New(events.EventReportGenerated, tenantID, runID, generatedPayload(generated)))
		return generated, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	tickets, err := s.tickets.ListCreatedBetween(fetchCtx, tenantID, window)
	cancel()
	if err != nil {
		s.metrics.RecordReportRun(tenantID, "fetch_failed", s.now().Sub(start))
		return nil, fmt.Errorf("fetch tickets for %s: %w", tenantID, err)
	}

	if s.auditBreaches {
		s.logDiscrepancies(logger, sla.AuditBreaches(tickets, start))
	}

	generated := &GeneratedReport{
		RunID:       runID,
		TenantID:    tenantID,
		Window:      window,
		Report:      sla.Aggregate(tickets),
		GeneratedAt: start,
	}

	if err := s.cache.Set(ctx, tenantID, window, generated.Report); err != nil {
		logger.Warn("report cache write failed", zap.Error(err))
	}

	elapsed := s.now().Sub(start)
	s.metrics.RecordReportRun(tenantID, "ok", elapsed)
	logger.Info("compliance report generated",
		zap.Int("total_tickets", generated.Report.TotalTickets),
		zap.Float64("response_compliance", generated.Report.ResponseCompliance),
		zap.Float64("resolution_compliance", generated.Report.ResolutionCompliance),
		zap.Duration("elapsed", elapsed),
	)
	s.publish(ctx, logger, events.New(events.EventReportGenerated, tenantID, runID, generatedPayload(generated)))
	return generated, nil
}

// Render generates the report and renders it into a document.
func (s *ReportService) Render(ctx context.Context, tenantID string, window domain.ReportWindow) (*GeneratedReport, report.Document, error) {
	generated, err := s.Generate(ctx, tenantID, window)
	if err != nil {
		return nil, report.Document{}, err
	}
	doc, err := report.Render(generated.Report, window)
	if err != nil {
		return nil, report.Document{}, fmt.Errorf("render report for %s: %w", tenantID, err)
	}
	return generated, doc, nil
}

// Deliver generates, renders and mails the report to the tenant's recipients.
func (s *ReportService) Deliver(ctx context.Context, tenantID string, window domain.ReportWindow) (*DeliveryResult, error) {
	generated, doc, err := s.Render(ctx, tenantID, window)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("tenant_id", tenantID), zap.String("run_id", generated.RunID))

	recipients, err := s.recipients.ListReportRecipients(ctx, tenantID, s.roles)
	if err != nil {
		return nil, fmt.Errorf("resolve recipients for %s: %w", tenantID, err)
	}
	addresses := uniqueEmails(recipients)

	result := &DeliveryResult{Generated: generated, Recipients: addresses, Transport: s.mailer.Name()}
	if len(addresses) == 0 {
		logger.Warn("no report recipients; report not sent")
		result.Skipped = true
		return result, nil
	}

	msg := mail.Message{
		From:    s.from,
		To:      addresses,
		Subject: doc.Subject,
		HTML:    doc.HTML,
		Text:    doc.Text,
	}
	err = mail.SendWithRetry(ctx, s.mailer, msg, s.retry, func(attempt int, err error) {
		result.Attempts = attempt
		if err != nil {
			s.metrics.RecordDelivery(s.mailer.Name(), "attempt_failed")
			logger.Warn("report delivery attempt failed",
				zap.Int("attempt", attempt), zap.Bool("transient", mail.IsTransient(err)), zap.Error(err))
		}
	})
	if err != nil {
		s.metrics.RecordDelivery(s.mailer.Name(), "failed")
		s.publish(ctx, logger, events.New(events.EventReportDeliveryFailed, tenantID, generated.RunID, events.ReportDeliveryFailedPayload{
			Transport: s.mailer.Name(),
			Attempts:  result.Attempts,
			Error:     err.Error(),
		}))
		return result, apperrors.NewDependencyUnavailable("mail transport", err)
	}

	s.metrics.RecordDelivery(s.mailer.Name(), "sent")
	logger.Info("compliance report delivered", zap.Int("recipients", len(addresses)), zap.Int("attempts", result.Attempts))
	s.publish(ctx, logger, events.New(events.EventReportDelivered, tenantID, generated.RunID, events.ReportDeliveredPayload{
		Transport:  s.mailer.Name(),
		Recipients: len(addresses),
		Attempts:   result.Attempts,
	}))
	return result, nil
}

func (s *ReportService) publish(ctx context.Context, logger *zap.Logger, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func (s *ReportService) logDiscrepancies(logger *zap.Logger, found []sla.BreachDiscrepancy) {
	if len(found) == 0 {
		return
	}
	logger.Warn("stored breach flags disagree with priority targets", zap.Int("count", len(found)))
	for _, d := range found {
		logger.Debug("breach flag discrepancy",
			zap.String("ticket_id", d.TicketID),
			zap.String("kind", string(d.Kind)),
			zap.Bool("flagged", d.Flagged),
			zap.Bool("computed", d.Computed),
		)
	}
}

func generatedPayload(g *GeneratedReport) events.ReportGeneratedPayload {
	return events.ReportGeneratedPayload{
		WindowStart:          g.Window.Start,
		WindowEnd:            g.Window.End,
		TotalTickets:         g.Report.TotalTickets,
		ResponseCompliance:   g.Report.ResponseCompliance,
		ResolutionCompliance: g.Report.ResolutionCompliance,
		Cached:               g.Cached,
	}
}

func uniqueEmails(recipients []domain.Recipient) []string {
	seen := make(map[string]struct{}, len(recipients))
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		email := strings.ToLower(strings.TrimSpace(r.Email))
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
