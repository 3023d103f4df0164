package directory

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrSubjectNotFound is returned when an id resolves to neither an
	// employee nor a dependent.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrDuplicateEmployee is returned on an employee_id unique violation.
	ErrDuplicateEmployee = errors.New("employee id already exists")
	// ErrValidation wraps input problems; handlers map it to 400.
	ErrValidation = errors.New("validation failed")
)

// Employee maps to the users table. Every employee is also a login account;
// the password column is owned by the accounts domain and never crosses this
// package's boundary.
type Employee struct {
	EmployeeID    string     `db:"employee_id" json:"employee_id"`
	Name          string     `db:"name" json:"name"`
	Email         *string    `db:"email" json:"email,omitempty"`
	Phone         *string    `db:"phone" json:"phone,omitempty"`
	Address       *string    `db:"address" json:"address,omitempty"`
	Department    *string    `db:"department" json:"department,omitempty"`
	Role          string     `db:"role" json:"role"`
	Status        *string    `db:"status" json:"status,omitempty"`
	DOB           *time.Time `db:"dob" json:"dob,omitempty"`
	Blood         *string    `db:"blood" json:"blood,omitempty"`
	ReferHospital bool       `db:"refer_hospital" json:"refer_hospital"`
	FirstLogin    bool       `db:"first_login" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
}

// Dependent maps to the family_members table. DependentID is unique across
// the whole directory, not just per employee.
type Dependent struct {
	ID          int64      `db:"id" json:"id"`
	EmployeeID  string     `db:"employee_id" json:"employee_id"`
	DependentID string     `db:"dependent_id" json:"dependent_id"`
	Name        string     `db:"name" json:"name"`
	Relation    string     `db:"relation" json:"relation"`
	Status      *string    `db:"status" json:"status,omitempty"`
	Blood       *string    `db:"blood" json:"blood,omitempty"`
	DOB         *time.Time `db:"dob" json:"dob,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// relationCodes is the single relation -> two-letter code table consulted by
// both allocation and validation.
var relationCodes = map[string]string{
	"HUSBAND":  "HB",
	"WIFE":     "WF",
	"SON":      "SN",
	"DAUGHTER": "DT",
	"MOTHER":   "MT",
	"FATHER":   "FT",
	"OTHER":    "O",
}

// RelationCode returns the two-letter code for a relation, defaulting to "O"
// for anything unmapped.
func RelationCode(relation string) string {
	if code, ok := relationCodes[strings.ToUpper(strings.TrimSpace(relation))]; ok {
		return code
	}
	return "O"
}

// NormalizeRelation canonicalizes a relation to its enumerated form,
// defaulting to OTHER for unrecognized values.
func NormalizeRelation(relation string) string {
	r := strings.ToUpper(strings.TrimSpace(relation))
	if _, ok := relationCodes[r]; ok {
		return r
	}
	return "OTHER"
}

const (
	defaultEmployeeStatus  = "active"
	defaultDependentStatus = "inactive"
)

// presentStatus trims and lowercases a stored status for presentation,
// substituting the given default when the field is empty.
func presentStatus(s *string, def string) string {
	if s == nil {
		return def
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	if v == "" {
		return def
	}
	return v
}

// presentDate renders a nullable timestamp as a calendar date.
func presentDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func presentString(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}

// SubjectKind discriminates the Subject union.
type SubjectKind string

const (
	SubjectEmployee  SubjectKind = "employee"
	SubjectDependent SubjectKind = "dependent"
)

// Subject is the tagged union produced when resolving an id: exactly one of
// Employee or Dependent is set, matching Kind.
type Subject struct {
	Kind      SubjectKind       `json:"kind"`
	Employee  *EmployeeProfile  `json:"employee,omitempty"`
	Dependent *DependentProfile `json:"dependent,omitempty"`
}

// ID returns the subject's id in the shared namespace.
func (s *Subject) ID() string {
	if s.Kind == SubjectDependent {
		return s.Dependent.DependentID
	}
	return s.Employee.EmployeeID
}

// EmployeeProfile is the presentation form of an employee with its current
// family, dates normalized and statuses canonicalized.
type EmployeeProfile struct {
	EmployeeID    string        `json:"employeeId"`
	Name          string        `json:"name"`
	Email         string        `json:"email,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Address       string        `json:"address,omitempty"`
	Department    string        `json:"department,omitempty"`
	Status        string        `json:"status"`
	Role          string        `json:"role"`
	DOB           string        `json:"dob,omitempty"`
	Blood         string        `json:"blood,omitempty"`
	ReferHospital bool          `json:"referHospital"`
	Family        []FamilyEntry `json:"family"`
}

// FamilyEntry is a dependent as presented inside an employee profile or the
// flattened listing.
type FamilyEntry struct {
	DependentID string `json:"dependentId"`
	Name        string `json:"name"`
	Relation    string `json:"relation"`
	Status      string `json:"status"`
	DOB         string `json:"dob,omitempty"`
	Blood       string `json:"blood,omitempty"`
}

// DependentProfile is the presentation form of a dependent subject.
type DependentProfile struct {
	DependentID string `json:"dependentId"`
	Name        string `json:"name"`
	Relation    string `json:"relation"`
	Status      string `json:"status"`
	EmployeeID  string `json:"employeeId"`
	DOB         string `json:"dob,omitempty"`
	Blood       string `json:"blood,omitempty"`
}

// EmployeeListing is one row of the flattened directory listing. Unknown
// contact fields are substituted so that the listing is directly renderable.
type EmployeeListing struct {
	EmployeeID string        `json:"employeeId"`
	Name       string        `json:"name"`
	Department string        `json:"department"`
	Status     string        `json:"status"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone"`
	Address    string        `json:"address"`
	Role       string        `json:"role"`
	Family     []FamilyEntry `json:"family"`
}

func employeeProfile(e *Employee, family []*Dependent) *EmployeeProfile {
	p := &EmployeeProfile{
		EmployeeID:    e.EmployeeID,
		Name:          e.Name,
		Email:         presentString(e.Email, ""),
		Phone:         presentString(e.Phone, ""),
		Address:       presentString(e.Address, ""),
		Department:    presentString(e.Department, ""),
		Status:        presentStatus(e.Status, defaultEmployeeStatus),
		Role:          e.Role,
		DOB:           presentDate(e.DOB),
		Blood:         presentString(e.Blood, ""),
		ReferHospital: e.ReferHospital,
		Family:        []FamilyEntry{},
	}
	for _, d := range family {
		p.Family = append(p.Family, familyEntry(d))
	}
	return p
}

func dependentProfile(d *Dependent) *DependentProfile {
	return &DependentProfile{
		DependentID: d.DependentID,
		Name:        d.Name,
		Relation:    d.Relation,
		Status:      presentStatus(d.Status, defaultDependentStatus),
		EmployeeID:  d.EmployeeID,
		DOB:         presentDate(d.DOB),
		Blood:       presentString(d.Blood, ""),
	}
}

func familyEntry(d *Dependent) FamilyEntry {
	return FamilyEntry{
		DependentID: d.DependentID,
		Name:        d.Name,
		Relation:    d.Relation,
		Status:      presentStatus(d.Status, defaultDependentStatus),
		DOB:         presentDate(d.DOB),
		Blood:       presentString(d.Blood, ""),
	}
}
