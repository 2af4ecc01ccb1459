package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// IsResolved reports whether the status counts toward resolution metrics.
func (s TicketStatus) IsResolved() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Priority carries the SLA targets attached to a ticket priority.
type Priority struct {
	ID                    string
	Name                  string
	ResponseTargetHours   float64
	ResolutionTargetHours float64
}

// Category groups tickets for reporting.
type Category struct {
	ID   string
	Name string
}

// Ticket is a read-only snapshot of a support request as seen by the reporting job.
type Ticket struct {
	ID                  string
	TenantID            string
	Status              TicketStatus
	CreatedAt           time.Time
	FirstResponseAt     *time.Time
	ResolvedAt          *time.Time
	SLABreachResponse   bool
	SLABreachResolution bool
	Priority            *Priority
	Category            *Category
}
