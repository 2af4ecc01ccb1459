package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/sla-reporting/internal/api/http/handlers"
	"github.com/spec-kit/sla-reporting/internal/auth"
	"github.com/spec-kit/sla-reporting/internal/config"
	"github.com/spec-kit/sla-reporting/internal/domain"
	"github.com/spec-kit/sla-reporting/internal/observability"
	"github.com/spec-kit/sla-reporting/internal/report"
	"github.com/spec-kit/sla-reporting/internal/service"
	apperrors "github.com/spec-kit/sla-reporting/pkg/util/errorutil"
)

var testNow = time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC)

type fakeReports struct {
	lastTenant string
	lastWindow domain.ReportWindow
	deliverErr error
	skipped    bool
}

func (f *fakeReports) Now() time.Time { return testNow }

func (f *fakeReports) Generate(_ context.Context, tenantID string, window domain.ReportWindow) (*service.GeneratedReport, error) {
	f.lastTenant, f.lastWindow = tenantID, window
	return &service.GeneratedReport{
		RunID:    "run-1",
		TenantID: tenantID,
		Window:   window,
		Report:   domain.ComplianceReport{TotalTickets: 3, ResponseCompliance: 100, ResolutionCompliance: 50},
	}, nil
}

func (f *fakeReports) Render(ctx context.Context, tenantID string, window domain.ReportWindow) (*service.GeneratedReport, report.Document, error) {
	g, _ := f.Generate(ctx, tenantID, window)
	return g, report.Document{HTML: "<h1>report</h1>"}, nil
}

func (f *fakeReports) Deliver(ctx context.Context, tenantID string, window domain.ReportWindow) (*service.DeliveryResult, error) {
	if f.deliverErr != nil {
		return nil, f.deliverErr
	}
	g, _ := f.Generate(ctx, tenantID, window)
	res := &service.DeliveryResult{Generated: g, Transport: "log", Attempts: 1, Skipped: f.skipped}
	if !f.skipped {
		res.Recipients = []string{"hr@acme.test"}
	}
	return res, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app     *fiber.App
	reports *fakeReports
	tokens  *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hash, err := auth.HashPassword("dash-secret", bcrypt.MinCost)
	require.NoError(t, err)

	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "secret",
		AccessTokenTTLMinutes: 5,
		Clients:               []config.APIClientConfig{{ID: "dash", SecretHash: hash, Role: "report_viewer", TenantID: "acme"}},
	})
	reports := &fakeReports{}
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("sla-reporting", "test", map[string]handlers.Pinger{"postgres": pinger{}}),
		Auth:           handlers.NewAuthHandler(authService),
		Reports:        handlers.NewReportsHandler(reports),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
	})
	return &testServer{app: app, reports: reports, tokens: authService.TokenManager()}
}

func (s *testServer) token(t *testing.T, role domain.StaffRole, tenantID string) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken("tester", domain.SubjectTypeClient, role, tenantID)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, target, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else {
		out["raw"] = string(raw)
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, "GET", "/health/ready", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestHealth_NotReady(t *testing.T) {
	app := fiber.New()
	h := handlers.NewHealthHandler("svc", "v", map[string]handlers.Pinger{"redis": pinger{err: assert.AnError}})
	app.Get("/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestAuthToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "POST", "/auth/token", "", `{"client_id":"dash","client_secret":"dash-secret"}`)
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])

	status, body = s.do(t, "POST", "/auth/token", "", `{"client_id":"dash","client_secret":"nope"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthorized, errorCode(body))

	status, body = s.do(t, "POST", "/auth/token", "", `{"client_id":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidationFailed, errorCode(body))
}

func TestComplianceReport(t *testing.T) {
	s := newTestServer(t)
	viewer := s.token(t, domain.StaffRoleReportViewer, "acme")

	status, body := s.do(t, "GET", "/reports/compliance?tenant_id=acme&from=2026-03-01&to=2026-03-08T00:00:00Z", viewer, "")
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "run-1", data["run_id"])
	assert.Equal(t, float64(3), data["report"].(map[string]any)["total_tickets"])
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), s.reports.lastWindow.Start)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), s.reports.lastWindow.End)
}

func TestComplianceReport_Defaults(t *testing.T) {
	s := newTestServer(t)
	viewer := s.token(t, domain.StaffRoleReportViewer, "acme")

	status, _ := s.do(t, "GET", "/reports/compliance", viewer, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "acme", s.reports.lastTenant)
	assert.Equal(t, domain.WeeklyWindow(testNow), s.reports.lastWindow)
}

func TestComplianceReport_Errors(t *testing.T) {
	s := newTestServer(t)
	viewer := s.token(t, domain.StaffRoleReportViewer, "acme")
	global := s.token(t, domain.StaffRoleAdmin, "")
	stranger := s.token(t, "hr_manager", "acme")

	tests := []struct {
		name   string
		target string
		token  string
		status int
		code   string
	}{
		{"no token", "/reports/compliance", "", fiber.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"bad token", "/reports/compliance", "garbage", fiber.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"wrong role", "/reports/compliance", stranger, fiber.StatusForbidden, apperrors.CodeForbidden},
		{"other tenant", "/reports/compliance?tenant_id=globex", viewer, fiber.StatusForbidden, apperrors.CodeForbidden},
		{"global without tenant", "/reports/compliance", global, fiber.StatusBadRequest, apperrors.CodeValidationFailed},
		{"half window", "/reports/compliance?from=2026-03-01", viewer, fiber.StatusBadRequest, apperrors.CodeValidationFailed},
		{"bad date", "/reports/compliance?from=yesterday&to=2026-03-08", viewer, fiber.StatusBadRequest, apperrors.CodeValidationFailed},
		{"inverted window", "/reports/compliance?from=2026-03-08&to=2026-03-01", viewer, fiber.StatusBadRequest, apperrors.CodeValidationFailed},
		{"unknown route", "/nope", "", fiber.StatusNotFound, apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, "GET", tt.target, tt.token, "")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, errorCode(body))
		})
	}
}

func TestComplianceHTML(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/reports/compliance/html", s.token(t, domain.StaffRoleReportViewer, "acme"), "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "<h1>report</h1>", body["raw"])
}

func TestSendReport(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, domain.StaffRoleAdmin, "")

	status, body := s.do(t, "POST", "/reports/compliance/send", admin, `{"tenant_id":"acme"}`)
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, []any{"hr@acme.test"}, data["recipients"])

	s.reports.skipped = true
	status, _ = s.do(t, "POST", "/reports/compliance/send", admin, `{"tenant_id":"acme"}`)
	assert.Equal(t, fiber.StatusAccepted, status)

	status, _ = s.do(t, "POST", "/reports/compliance/send", s.token(t, domain.StaffRoleReportViewer, "acme"), "")
	assert.Equal(t, fiber.StatusForbidden, status)

	s.reports.deliverErr = apperrors.NewDependencyUnavailable("mail transport", assert.AnError)
	status, body = s.do(t, "POST", "/reports/compliance/send", admin, `{"tenant_id":"acme"}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, apperrors.CodeDependencyUnavailable, errorCode(body))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "GET", "/health/live", "", "")

	status, body := s.do(t, "GET", "/metrics", "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "requests")
}

func TestComplianceReport_WindowErrorExplainsExclusiveEnd(t *testing.T) {
	s := newTestServer(t)
	viewer := s.token(t, domain.StaffRoleReportViewer, "acme")

	status, body := s.do(t, "GET", "/reports/compliance?from=2026-03-08&to=2026-03-08", viewer, "")
	require.Equal(t, fiber.StatusBadRequest, status)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "2026-03-08", details["to"])
	assert.Contains(t, details["hint"], "to excludes that day")

	// A single day is requested with the following date as the exclusive end.
	status, _ = s.do(t, "GET", "/reports/compliance?from=2026-03-08&to=2026-03-09", viewer, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, s.reports.lastWindow.Contains(time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC)))
}
