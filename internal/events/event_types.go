package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportGenerated      EventType = "report_generated"
	EventReportDelivered      EventType = "report_delivered"
	EventReportDeliveryFailed EventType = "report_delivery_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TenantID  string    `json:"tenant_id"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh ID and the current time.
func New(eventType EventType, tenantID, runID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TenantID:  tenantID,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ReportGeneratedPayload payload.
type ReportGeneratedPayload struct {
	WindowStart          time.Time `json:"window_start"`
	WindowEnd            time.Time `json:"window_end"`
	TotalTickets         int       `json:"total_tickets"`
	ResponseCompliance   float64   `json:"response_compliance"`
	ResolutionCompliance float64   `json:"resolution_compliance"`
	Cached               bool      `json:"cached"`
}

// ReportDeliveredPayload payload.
type ReportDeliveredPayload struct {
	Transport  string `json:"transport"`
	Recipients int    `json:"recipients"`
	Attempts   int    `json:"attempts"`
}

// ReportDeliveryFailedPayload payload.
type ReportDeliveryFailedPayload struct {
	Transport string `json:"transport"`
	Attempts  int    `json:"attempts"`
	Error     string `json:"error"`
}
