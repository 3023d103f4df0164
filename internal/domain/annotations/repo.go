package annotations

import "context"

// Repository defines the persistence operations of one annotation register.
type Repository interface {
	Create(ctx context.Context, a *Annotation) error
	ListByEmployee(ctx context.Context, employeeID string) ([]*Annotation, error)
	// Latest returns the most recently updated row for the employee, breaking
	// updated_at ties on the highest id. No rows is ErrAnnotationNotFound.
	Latest(ctx context.Context, employeeID string) (*Annotation, error)
	// Update overwrites the value in place, stamping updated_by/updated_at.
	Update(ctx context.Context, id int64, value, updatedBy string) (*Annotation, error)
}
