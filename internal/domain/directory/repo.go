package directory

import "context"

// Repository defines the persistence operations of the identity directory.
// Implementations must honor a transaction placed in the context by
// db.WithTx so that reconciliation and allocation stay atomic.
type Repository interface {
	CreateEmployee(ctx context.Context, e *Employee, initialPassword string) error
	GetEmployee(ctx context.Context, employeeID string) (*Employee, error)
	UpdateEmployee(ctx context.Context, e *Employee) error
	ListEmployees(ctx context.Context) ([]*Employee, error)
	ListEmployeesByRole(ctx context.Context, role string) ([]*Employee, error)

	GetDependent(ctx context.Context, dependentID string) (*Dependent, error)
	ListFamily(ctx context.Context, employeeID string) ([]*Dependent, error)
	ListAllDependents(ctx context.Context) ([]*Dependent, error)
	CreateDependent(ctx context.Context, d *Dependent) error
	UpdateDependent(ctx context.Context, d *Dependent) error
	DeleteDependents(ctx context.Context, dependentIDs []string) error
	// LockDependentIDs returns every dependent id starting with base,
	// locking the matching rows for the remainder of the transaction.
	LockDependentIDs(ctx context.Context, base string) ([]string, error)
	FamilyLinkExists(ctx context.Context, employeeID, dependentID string) (bool, error)
}
