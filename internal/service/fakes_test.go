package service

import (
	"context"
	"sync"

	"github.com/spec-kit/sla-reporting/internal/domain"
	"github.com/spec-kit/sla-reporting/internal/mail"
)

type fakeTickets struct {
	mu      sync.Mutex
	tickets map[string][]domain.Ticket
	err     error
	calls   int
}

func (f *fakeTickets) ListCreatedBetween(_ context.Context, tenantID string, window domain.ReportWindow) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Ticket
	for _, t := range f.tickets[tenantID] {
		if window.Contains(t.CreatedAt) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeRecipients struct {
	byTenant map[string][]domain.Recipient
	err      error
	roles    []domain.StaffRole
}

func (f *fakeRecipients) ListReportRecipients(_ context.Context, tenantID string, roles []domain.StaffRole) ([]domain.Recipient, error) {
	f.roles = roles
	return f.byTenant[tenantID], f.err
}

type memoryCache struct {
	mu      sync.Mutex
	reports map[string]domain.ComplianceReport
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{reports: map[string]domain.ComplianceReport{}}
}

func cacheKey(tenantID string, w domain.ReportWindow) string {
	return tenantID + w.Start.String() + w.End.String()
}

func (m *memoryCache) Get(_ context.Context, tenantID string, w domain.ReportWindow) (*domain.ComplianceReport, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	r, ok := m.reports[cacheKey(tenantID, w)]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (m *memoryCache) Set(_ context.Context, tenantID string, w domain.ReportWindow, r domain.ComplianceReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[cacheKey(tenantID, w)] = r
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	errs []error
	sent []mail.Message
	n    int
}

func (m *recordingMailer) Name() string { return "recording" }

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	if m.n <= len(m.errs) && m.errs[m.n-1] != nil {
		return m.errs[m.n-1]
	}
	m.sent = append(m.sent, msg)
	return nil
}
