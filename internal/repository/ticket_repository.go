package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-reporting/internal/domain"
)

// TicketRepository reads ticket snapshots for reporting.
type TicketRepository interface {
	ListCreatedBetween(ctx context.Context, tenantID string, window domain.ReportWindow) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const listCreatedBetweenQuery = `
        SELECT t.id, t.tenant_id, t.status, t.created_at, t.first_response_at, t.resolved_at,
               t.sla_breach_response, t.sla_breach_resolution,
               p.id, p.name, p.response_target_hours, p.resolution_target_hours,
               c.id, c.name
        FROM support_tickets t
        LEFT JOIN ticket_priorities p ON p.id = t.priority_id
        LEFT JOIN ticket_categories c ON c.id = t.category_id
        WHERE t.tenant_id=$1 AND t.created_at >= $2 AND t.created_at < $3
        ORDER BY t.created_at`

func (r *ticketRepository) ListCreatedBetween(ctx context.Context, tenantID string, window domain.ReportWindow) ([]domain.Ticket, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, listCreatedBetweenQuery, tenantID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row rowScanner) (domain.Ticket, error) {
	var (
		ticket                   domain.Ticket
		status                   string
		firstResponseAt          *time.Time
		resolvedAt               *time.Time
		priorityID, priorityName *string
		responseTarget           *float64
		resolutionTarget         *float64
		categoryID, categoryName *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TenantID,
		&status,
		&ticket.CreatedAt,
		&firstResponseAt,
		&resolvedAt,
		&ticket.SLABreachResponse,
		&ticket.SLABreachResolution,
		&priorityID,
		&priorityName,
		&responseTarget,
		&resolutionTarget,
		&categoryID,
		&categoryName,
	); err != nil {
		return domain.Ticket{}, err
	}

	ticket.Status = domain.TicketStatus(status)
	ticket.FirstResponseAt = firstResponseAt
	ticket.ResolvedAt = resolvedAt
	if priorityID != nil {
		ticket.Priority = &domain.Priority{
			ID:                    *priorityID,
			Name:                  deref(priorityName),
			ResponseTargetHours:   derefFloat(responseTarget),
			ResolutionTargetHours: derefFloat(resolutionTarget),
		}
	}
	if categoryID != nil {
		ticket.Category = &domain.Category{ID: *categoryID, Name: deref(categoryName)}
	}
	return ticket, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
