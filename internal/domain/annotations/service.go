package annotations

import (
	"context"
	"fmt"
	"strings"
)

// Service provides the operations of one annotation register. Three instances
// run in production, one per register.
type Service struct {
	repo Repository
	reg  Register
}

func NewService(repo Repository, reg Register) *Service {
	return &Service{repo: repo, reg: reg}
}

// Register returns the register this service serves.
func (s *Service) Register() Register {
	return s.reg
}

// Create appends a new entry to the register.
func (s *Service) Create(ctx context.Context, employeeID, value, createdBy string) (*Annotation, error) {
	if strings.TrimSpace(employeeID) == "" || strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("%w: employee id and %s are required", ErrValidation, s.reg.Name)
	}
	a := &Annotation{
		EmployeeID: strings.TrimSpace(employeeID),
		Value:      strings.TrimSpace(value),
		CreatedBy:  createdBy,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns every entry for the employee in storage order.
func (s *Service) List(ctx context.Context, employeeID string) ([]*Annotation, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, fmt.Errorf("%w: employee id is required", ErrValidation)
	}
	return s.repo.ListByEmployee(ctx, employeeID)
}

// Latest returns the most recently updated entry, or ErrAnnotationNotFound
// when the register holds nothing for the employee. Handlers render the
// not-found case as an empty object, not a 404.
func (s *Service) Latest(ctx context.Context, employeeID string) (*Annotation, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, fmt.Errorf("%w: employee id is required", ErrValidation)
	}
	return s.repo.Latest(ctx, employeeID)
}

// Update overwrites an entry's value in place.
func (s *Service) Update(ctx context.Context, id int64, value, updatedBy string) (*Annotation, error) {
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrValidation, s.reg.Name)
	}
	return s.repo.Update(ctx, id, strings.TrimSpace(value), updatedBy)
}
