package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-reporting/internal/domain"
)

// RecipientRepository resolves who receives a tenant's compliance report.
type RecipientRepository interface {
	ListReportRecipients(ctx context.Context, tenantID string, roles []domain.StaffRole) ([]domain.Recipient, error)
}

type recipientRepository struct {
	pool *pgxpool.Pool
}

// NewRecipientRepository instantiates the repository.
func NewRecipientRepository(pool *pgxpool.Pool) RecipientRepository {
	return &recipientRepository{pool: pool}
}

func (r *recipientRepository) ListReportRecipients(ctx context.Context, tenantID string, roles []domain.StaffRole) ([]domain.Recipient, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, tenant_id, name, email, role
        FROM staff_members
        WHERE tenant_id=$1 AND active_flag AND email <> '' AND role = ANY($2)
        ORDER BY email`

	roleNames := make([]string, len(roles))
	for i, role := range roles {
		roleNames[i] = string(role)
	}

	rows, err := r.pool.Query(ctx, query, tenantID, roleNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []domain.Recipient
	for rows.Next() {
		var rec domain.Recipient
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.Name, &rec.Email, &rec.Role); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}
