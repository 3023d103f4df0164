package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TxRunner executes fn inside a database transaction, rolling back when fn
// returns an error. The server wires db.WithTx here; tests substitute their
// own runner.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service provides the identity directory operations: subject resolution,
// employee creation, profile reconciliation, and the family access gate.
type Service struct {
	repo Repository
	tx   TxRunner
}

func NewService(repo Repository, tx TxRunner) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{repo: repo, tx: tx}
}

// EmployeeInput carries the administrative create/update payload.
type EmployeeInput struct {
	EmployeeID    string              `json:"employee_id"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	Address       string              `json:"address"`
	Department    string              `json:"department"`
	Role          string              `json:"role"`
	Status        string              `json:"status"`
	DOB           string              `json:"dob"`
	Blood         string              `json:"blood"`
	ReferHospital bool                `json:"refer_hospital"`
	FamilyMembers []FamilyMemberInput `json:"family_members"`
}

// FamilyMemberInput is one descriptor of a reconciliation target list. A
// present DependentID means update-in-place; absence means a new dependent.
type FamilyMemberInput struct {
	DependentID string `json:"dependent_id"`
	Name        string `json:"name"`
	Relation    string `json:"relation"`
	Status      string `json:"status"`
	Blood       string `json:"blood"`
	DOB         string `json:"dob"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return &t, nil
}

// GetSubject resolves an id to an employee (with family) or a dependent.
func (s *Service) GetSubject(ctx context.Context, id string) (*Subject, error) {
	e, err := s.repo.GetEmployee(ctx, id)
	if err == nil {
		family, err := s.repo.ListFamily(ctx, e.EmployeeID)
		if err != nil {
			return nil, err
		}
		return &Subject{Kind: SubjectEmployee, Employee: employeeProfile(e, family)}, nil
	}
	if !errors.Is(err, ErrSubjectNotFound) {
		return nil, err
	}

	d, err := s.repo.GetDependent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Subject{Kind: SubjectDependent, Dependent: dependentProfile(d)}, nil
}

// ListEmployees returns the flattened directory listing: every employee with
// its dependents nested, presentation defaults applied.
func (s *Service) ListEmployees(ctx context.Context) ([]*EmployeeListing, error) {
	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	dependents, err := s.repo.ListAllDependents(ctx)
	if err != nil {
		return nil, err
	}

	familyByEmployee := make(map[string][]FamilyEntry)
	for _, d := range dependents {
		familyByEmployee[d.EmployeeID] = append(familyByEmployee[d.EmployeeID], familyEntry(d))
	}

	listings := make([]*EmployeeListing, 0, len(employees))
	for _, e := range employees {
		family := familyByEmployee[e.EmployeeID]
		if family == nil {
			family = []FamilyEntry{}
		}
		listings = append(listings, &EmployeeListing{
			EmployeeID: e.EmployeeID,
			Name:       e.Name,
			Department: presentString(e.Department, "Unknown"),
			Status:     presentStatus(e.Status, defaultEmployeeStatus),
			Email:      presentString(e.Email, "Unknown"),
			Phone:      presentString(e.Phone, "Unknown"),
			Address:    presentString(e.Address, "Unknown"),
			Role:       e.Role,
			Family:     family,
		})
	}
	return listings, nil
}

// ListByRole returns employees holding the given role (doctor and technician
// directory pages).
func (s *Service) ListByRole(ctx context.Context, role string) ([]*Employee, error) {
	return s.repo.ListEmployeesByRole(ctx, role)
}

// FamilyMembers returns the raw dependent rows of one employee.
func (s *Service) FamilyMembers(ctx context.Context, employeeID string) ([]*Dependent, error) {
	return s.repo.ListFamily(ctx, employeeID)
}

// AddEmployee creates the employee row plus any supplied dependents in one
// transaction. The login bootstrap stores the employee id as the initial
// credential; the accounts domain replaces it at first password change.
func (s *Service) AddEmployee(ctx context.Context, in *EmployeeInput) error {
	if strings.TrimSpace(in.EmployeeID) == "" || strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: employee id and name are required", ErrValidation)
	}

	dob, err := parseDate(in.DOB)
	if err != nil {
		return err
	}

	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if role == "" {
		role = "EMPLOYEE"
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = defaultEmployeeStatus
	}

	e := &Employee{
		EmployeeID:    strings.TrimSpace(in.EmployeeID),
		Name:          in.Name,
		Email:         optional(in.Email),
		Phone:         optional(in.Phone),
		Address:       optional(in.Address),
		Department:    optional(in.Department),
		Role:          role,
		Status:        &status,
		DOB:           dob,
		Blood:         optional(in.Blood),
		ReferHospital: in.ReferHospital,
	}

	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateEmployee(ctx, e, e.EmployeeID); err != nil {
			return err
		}
		for i := range in.FamilyMembers {
			if err := s.insertDependent(ctx, e.EmployeeID, &in.FamilyMembers[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateEmployee updates the employee row and, when a family list is
// supplied, reconciles the stored dependents against it: absent ids are
// deleted, present ids updated in place, id-less descriptors inserted with a
// freshly allocated dependent id. The whole operation commits or rolls back
// as one unit.
func (s *Service) UpdateEmployee(ctx context.Context, employeeID string, in *EmployeeInput) error {
	if strings.TrimSpace(employeeID) == "" {
		return fmt.Errorf("%w: employee id is required", ErrValidation)
	}

	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if role == "" {
		role = "EMPLOYEE"
	}
	e := &Employee{
		EmployeeID:    employeeID,
		Name:          in.Name,
		Email:         optional(in.Email),
		Phone:         optional(in.Phone),
		Address:       optional(in.Address),
		Department:    optional(in.Department),
		Role:          role,
		Status:        optional(in.Status),
		ReferHospital: in.ReferHospital,
	}

	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateEmployee(ctx, e); err != nil {
			return err
		}
		if in.FamilyMembers == nil {
			return nil
		}
		return s.reconcileFamily(ctx, employeeID, in.FamilyMembers)
	})
}

func (s *Service) reconcileFamily(ctx context.Context, employeeID string, target []FamilyMemberInput) error {
	existing, err := s.repo.ListFamily(ctx, employeeID)
	if err != nil {
		return err
	}

	incoming := make(map[string]bool, len(target))
	for _, m := range target {
		if m.DependentID != "" {
			incoming[m.DependentID] = true
		}
	}

	var toDelete []string
	for _, d := range existing {
		if !incoming[d.DependentID] {
			toDelete = append(toDelete, d.DependentID)
		}
	}
	if err := s.repo.DeleteDependents(ctx, toDelete); err != nil {
		return err
	}

	for i := range target {
		m := &target[i]
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Relation) == "" {
			return fmt.Errorf("%w: family member %d requires name and relation", ErrValidation, i+1)
		}

		if m.DependentID != "" {
			dob, err := parseDate(m.DOB)
			if err != nil {
				return err
			}
			status := dependentStatus(m.Status)
			if err := s.repo.UpdateDependent(ctx, &Dependent{
				EmployeeID:  employeeID,
				DependentID: m.DependentID,
				Name:        m.Name,
				Relation:    NormalizeRelation(m.Relation),
				Status:      &status,
				Blood:       optional(m.Blood),
				DOB:         dob,
			}); err != nil {
				return err
			}
			continue
		}

		if err := s.insertDependent(ctx, employeeID, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) insertDependent(ctx context.Context, employeeID string, m *FamilyMemberInput) error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Relation) == "" {
		return fmt.Errorf("%w: family members require name and relation", ErrValidation)
	}

	dob, err := parseDate(m.DOB)
	if err != nil {
		return err
	}

	base := employeeID + RelationCode(m.Relation)
	existing, err := s.repo.LockDependentIDs(ctx, base)
	if err != nil {
		return err
	}

	status := dependentStatus(m.Status)
	return s.repo.CreateDependent(ctx, &Dependent{
		EmployeeID:  employeeID,
		DependentID: NextDependentID(base, existing),
		Name:        m.Name,
		Relation:    NormalizeRelation(m.Relation),
		Status:      &status,
		Blood:       optional(m.Blood),
		DOB:         dob,
	})
}

func dependentStatus(status string) string {
	st := strings.ToUpper(strings.TrimSpace(status))
	if st == "" {
		st = "ACTIVE"
	}
	return st
}

// CheckFamilyAccess grants self-access trivially; otherwise access requires
// a dependent row linking dependentID to employeeID.
func (s *Service) CheckFamilyAccess(ctx context.Context, employeeID, dependentID string) (bool, error) {
	if employeeID == "" || dependentID == "" {
		return false, fmt.Errorf("%w: employee_id and dependent_id are required", ErrValidation)
	}
	if employeeID == dependentID {
		return true, nil
	}
	return s.repo.FamilyLinkExists(ctx, employeeID, dependentID)
}
