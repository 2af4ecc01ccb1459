package dto

import (
	"time"

	"github.com/spec-kit/sla-reporting/internal/domain"
)

// TokenRequest payload for the client-credentials exchange.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AuthResponse returned after a successful exchange.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReportRequest selects a tenant and window; empty bounds default to last week.
type ReportRequest struct {
	TenantID string `json:"tenant_id" query:"tenant_id"`
	From     string `json:"from" query:"from"`
	To       string `json:"to" query:"to"`
}

// WindowResponse is the half-open window a report covers.
type WindowResponse struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ComplianceReportResponse wraps a report with its run metadata.
type ComplianceReportResponse struct {
	RunID       string                  `json:"run_id"`
	TenantID    string                  `json:"tenant_id"`
	Window      WindowResponse          `json:"window"`
	Cached      bool                    `json:"cached"`
	GeneratedAt time.Time               `json:"generated_at"`
	Report      domain.ComplianceReport `json:"report"`
}

// DeliveryResponse describes a manual send.
type DeliveryResponse struct {
	RunID      string   `json:"run_id"`
	TenantID   string   `json:"tenant_id"`
	Transport  string   `json:"transport"`
	Recipients []string `json:"recipients"`
	Attempts   int      `json:"attempts"`
	Skipped    bool     `json:"skipped"`
}
