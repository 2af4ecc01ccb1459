package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-reporting/internal/api/dto"
	"github.com/spec-kit/sla-reporting/internal/auth"
	"github.com/spec-kit/sla-reporting/internal/domain"
	"github.com/spec-kit/sla-reporting/internal/report"
	"github.com/spec-kit/sla-reporting/internal/service"
	apperrors "github.com/spec-kit/sla-reporting/pkg/util/errorutil"
)

// ReportRunner is the subset of the report service the HTTP layer needs.
type ReportRunner interface {
	Now() time.Time
	Generate(ctx context.Context, tenantID string, window domain.ReportWindow) (*service.GeneratedReport, error)
	Render(ctx context.Context, tenantID string, window domain.ReportWindow) (*service.GeneratedReport, report.Document, error)
	Deliver(ctx context.Context, tenantID string, window domain.ReportWindow) (*service.DeliveryResult, error)
}

// ReportsHandler serves compliance reports.
type ReportsHandler struct {
	reports ReportRunner
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports ReportRunner) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Compliance handles GET /reports/compliance.
//
// The window is [from, to): to is exclusive. A bare date such as
// to=2026-03-08 means midnight UTC at the start of that day, so tickets
// created on Mar 8 are not included; pass to=2026-03-09 to include them.
func (h *ReportsHandler) Compliance(c *fiber.Ctx) error {
	var req dto.ReportRequest
	if err := c.QueryParser(&req); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	tenantID, window, err := h.resolve(c, req)
	if err != nil {
		return err
	}

	generated, err := h.reports.Generate(c.UserContext(), tenantID, window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponse(generated)})
}

// ComplianceHTML handles GET /reports/compliance/html. Window bounds as for Compliance.
func (h *ReportsHandler) ComplianceHTML(c *fiber.Ctx) error {
	var req dto.ReportRequest
	if err := c.QueryParser(&req); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	tenantID, window, err := h.resolve(c, req)
	if err != nil {
		return err
	}

	_, doc, err := h.reports.Render(c.UserContext(), tenantID, window)
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(doc.HTML)
}

// Send handles POST /reports/compliance/send. Window bounds as for Compliance.
func (h *ReportsHandler) Send(c *fiber.Ctx) error {
	var req dto.ReportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	tenantID, window, err := h.resolve(c, req)
	if err != nil {
		return err
	}

	result, err := h.reports.Deliver(c.UserContext(), tenantID, window)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if result.Skipped {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.DeliveryResponse{
		RunID:      result.Generated.RunID,
		TenantID:   tenantID,
		Transport:  result.Transport,
		Recipients: result.Recipients,
		Attempts:   result.Attempts,
		Skipped:    result.Skipped,
	}})
}

// resolve picks the tenant (falling back to the caller's own) and the window.
func (h *ReportsHandler) resolve(c *fiber.Ctx, req dto.ReportRequest) (string, domain.ReportWindow, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", domain.ReportWindow{}, apperrors.NewUnauthorized("authentication required")
	}

	tenantID := strings.TrimSpace(req.TenantID)
	if tenantID == "" {
		tenantID = principal.TenantID
	}
	if tenantID == "" {
		return "", domain.ReportWindow{}, apperrors.NewValidationError("tenant_id required", nil)
	}
	if !principal.CanAccessTenant(tenantID) {
		return "", domain.ReportWindow{}, apperrors.NewForbidden("tenant not accessible")
	}

	window, err := parseWindow(req.From, req.To, h.reports.Now())
	if err != nil {
		return "", domain.ReportWindow{}, err
	}
	return tenantID, window, nil
}

const windowHint = "window is [from, to); a bare date is midnight UTC, so to excludes that day"

func parseWindow(from, to string, now time.Time) (domain.ReportWindow, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return domain.WeeklyWindow(now), nil
	}
	if from == "" || to == "" {
		return domain.ReportWindow{}, apperrors.NewValidationError("from and to must be given together",
			map[string]any{"hint": windowHint})
	}
	start, err := parseTime(from)
	if err != nil {
		return domain.ReportWindow{}, apperrors.NewValidationError("invalid from", map[string]any{"from": from, "hint": windowHint})
	}
	end, err := parseTime(to)
	if err != nil {
		return domain.ReportWindow{}, apperrors.NewValidationError("invalid to", map[string]any{"to": to, "hint": windowHint})
	}
	window := domain.ReportWindow{Start: start, End: end}
	if err := window.Validate(); err != nil {
		return domain.ReportWindow{}, apperrors.NewValidationError(err.Error(),
			map[string]any{"from": from, "to": to, "hint": windowHint})
	}
	return window, nil
}

// parseTime accepts RFC 3339 timestamps or bare UTC dates.
func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, v)
}

func reportResponse(g *service.GeneratedReport) dto.ComplianceReportResponse {
	return dto.ComplianceReportResponse{
		RunID:       g.RunID,
		TenantID:    g.TenantID,
		Window:      dto.WindowResponse{From: g.Window.Start, To: g.Window.End},
		Cached:      g.Cached,
		GeneratedAt: g.GeneratedAt,
		Report:      g.Report,
	}
}
