package domain

// SubjectType differentiates API client vs staff tokens.
type SubjectType string

const (
	SubjectTypeClient SubjectType = "CLIENT"
	SubjectTypeStaff  SubjectType = "STAFF"
)

// APIClient is a machine credential (dashboards, schedulers) allowed to query reports.
type APIClient struct {
	ID         string
	SecretHash string
	Role       StaffRole
	// TenantID restricts the client to one tenant; empty means all tenants.
	TenantID string
}
