package domain

// StaffRole enumerates directory roles relevant to reporting.
type StaffRole string

const (
	StaffRoleAdmin        StaffRole = "admin"
	StaffRoleHRManager    StaffRole = "hr_manager"
	StaffRoleReportViewer StaffRole = "report_viewer"
)

// Recipient is a directory entry that receives compliance reports.
type Recipient struct {
	ID       string
	TenantID string
	Name     string
	Email    string
	Role     StaffRole
}

// Tenant is an organisation whose tickets are reported separately.
type Tenant struct {
	ID   string
	Name string
}
