package analytics

import "context"

// Repository defines the read-only aggregation queries behind the dashboards
// and the analytics overview. Everything operates on live (non-deleted)
// reports.
type Repository interface {
	AdminDashboard(ctx context.Context) (*AdminDashboard, error)
	EmployeeDashboard(ctx context.Context, employeeID string) (*EmployeeDashboard, error)
	Overview(ctx context.Context) (*Overview, error)
}
