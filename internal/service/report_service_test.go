package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-reporting/internal/config"
	"github.com/spec-kit/sla-reporting/internal/domain"
	"github.com/spec-kit/sla-reporting/internal/events"
	"github.com/spec-kit/sla-reporting/internal/mail"
	"github.com/spec-kit/sla-reporting/internal/observability"
	apperrors "github.com/spec-kit/sla-reporting/pkg/util/errorutil"
)

var (
	now    = time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC)
	window = domain.WeeklyWindow(now)
)

func ptr(t time.Time) *time.Time { return &t }

func sampleTickets() map[string][]domain.Ticket {
	created := window.Start.Add(10 * time.Hour)
	return map[string][]domain.Ticket{
		"acme": {
			{ID: "1", TenantID: "acme", Status: domain.TicketStatusResolved, CreatedAt: created,
				FirstResponseAt: ptr(created.Add(time.Hour)), ResolvedAt: ptr(created.Add(5 * time.Hour)),
				Priority: &domain.Priority{Name: "High"}, Category: &domain.Category{Name: "Payroll"}},
			{ID: "2", TenantID: "acme", Status: domain.TicketStatusOpen, CreatedAt: created,
				FirstResponseAt: ptr(created.Add(3 * time.Hour)), SLABreachResponse: true,
				Priority: &domain.Priority{Name: "High"}},
			// Outside the window.
			{ID: "3", TenantID: "acme", Status: domain.TicketStatusOpen, CreatedAt: window.End},
		},
	}
}

type harness struct {
	svc        *ReportService
	tickets    *fakeTickets
	recipients *fakeRecipients
	cache      *memoryCache
	mailer     *recordingMailer
	events     []events.Event
	metrics    *observability.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		tickets: &fakeTickets{tickets: sampleTickets()},
		recipients: &fakeRecipients{byTenant: map[string][]domain.Recipient{
			"acme": {
				{Email: "HR@acme.test", Role: domain.StaffRoleHRManager},
				{Email: "hr@acme.test", Role: domain.StaffRoleAdmin},
				{Email: "ceo@acme.test", Role: domain.StaffRoleAdmin},
				{Email: " ", Role: domain.StaffRoleAdmin},
			},
		}},
		cache:   newMemoryCache(),
		mailer:  &recordingMailer{},
		metrics: observability.NewMetrics(),
	}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{events.EventReportGenerated, events.EventReportDelivered, events.EventReportDeliveryFailed} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			h.events = append(h.events, e)
			return nil
		})
	}

	cfg := config.Config{
		Report: config.ReportConfig{RecipientRoles: []string{"admin", "hr_manager"}, AuditBreaches: true},
		Mail:   config.MailConfig{From: "reports@example.com", MaxAttempts: 3, BackoffMillis: 1},
	}
	h.svc = NewReportService(cfg, ReportDependencies{
		Tickets:    h.tickets,
		Recipients: h.recipients,
		Cache:      h.cache,
		Mailer:     h.mailer,
		Dispatcher: dispatcher,
		Metrics:    h.metrics,
		Logger:     zap.NewNop(),
		Now:        func() time.Time { return now },
	})
	return h
}

func (h *harness) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Type)
	}
	return out
}

func TestReportService_Generate(t *testing.T) {
	h := newHarness(t)

	got, err := h.svc.Generate(context.Background(), "acme", window)
	require.NoError(t, err)

	assert.False(t, got.Cached)
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, 2, got.Report.TotalTickets)
	assert.Equal(t, 1, got.Report.ResolvedTickets)
	assert.Equal(t, 50.0, got.Report.ResponseCompliance)
	assert.InDelta(t, 2.0, got.Report.AvgResponseTimeHours, 1e-9)
	assert.Equal(t, []domain.PriorityBreakdown{{Name: "High", Total: 2, ResponseBreaches: 1}}, got.Report.ByPriority)
	assert.Equal(t, int64(1), h.metrics.Snapshot().ReportRuns["acme|ok"])

	again, err := h.svc.Generate(context.Background(), "acme", window)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, got.Report, again.Report)
	assert.Equal(t, 1, h.tickets.calls)
	assert.Equal(t, []events.EventType{events.EventReportGenerated, events.EventReportGenerated}, h.eventTypes())
}

func TestReportService_GenerateEmptyTenant(t *testing.T) {
	h := newHarness(t)

	got, err := h.svc.Generate(context.Background(), "globex", window)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Report.TotalTickets)
	assert.Equal(t, 100.0, got.Report.ResolutionCompliance)
}

func TestReportService_GenerateValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Generate(context.Background(), "", window)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code)

	_, err = h.svc.Generate(context.Background(), "acme", domain.ReportWindow{Start: now, End: now})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code)
	assert.Zero(t, h.tickets.calls)
}

func TestReportService_GenerateFetchFailure(t *testing.T) {
	h := newHarness(t)
	h.tickets.err = errors.New("connection refused")

	_, err := h.svc.Generate(context.Background(), "acme", window)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch tickets for acme")
	assert.Equal(t, int64(1), h.metrics.Snapshot().ReportRuns["acme|fetch_failed"])
}

func TestReportService_GenerateCacheReadFailureRecomputes(t *testing.T) {
	h := newHarness(t)
	h.cache.getErr = errors.New("redis down")

	got, err := h.svc.Generate(context.Background(), "acme", window)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Report.TotalTickets)
}

func TestReportService_Deliver(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Deliver(context.Background(), "acme", window)
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, []string{"hr@acme.test", "ceo@acme.test"}, res.Recipients)
	assert.Equal(t, []domain.StaffRole{domain.StaffRoleAdmin, domain.StaffRoleHRManager}, h.recipients.roles)

	require.Len(t, h.mailer.sent, 1)
	msg := h.mailer.sent[0]
	assert.Equal(t, "reports@example.com", msg.From)
	assert.Contains(t, msg.Subject, "Weekly SLA Compliance Report")
	assert.Contains(t, msg.HTML, "<table>")
	assert.Equal(t, []events.EventType{events.EventReportGenerated, events.EventReportDelivered}, h.eventTypes())
	assert.Equal(t, int64(1), h.metrics.Snapshot().Deliveries["recording|sent"])
}

func TestReportService_DeliverRetriesTransientFailures(t *testing.T) {
	h := newHarness(t)
	h.mailer.errs = []error{mail.Transient(errors.New("421 busy")), nil}

	res, err := h.svc.Deliver(context.Background(), "acme", window)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Len(t, h.mailer.sent, 1)
}

func TestReportService_DeliverPermanentFailure(t *testing.T) {
	h := newHarness(t)
	h.mailer.errs = []error{errors.New("550 rejected")}

	res, err := h.svc.Deliver(context.Background(), "acme", window)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDependencyUnavailable, apperrors.ToDomainError(err).Code)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, events.EventReportDeliveryFailed, h.events[len(h.events)-1].Type)
}

func TestReportService_DeliverWithoutRecipients(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Deliver(context.Background(), "globex", window)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, h.mailer.sent)
}

func TestReportService_DeliverRecipientLookupFailure(t *testing.T) {
	h := newHarness(t)
	h.recipients.err = errors.New("directory timeout")

	_, err := h.svc.Deliver(context.Background(), "acme", window)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve recipients")
	assert.Empty(t, h.mailer.sent)
}
