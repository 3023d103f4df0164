package annotations

import (
	"errors"
	"time"
)

var (
	// ErrAnnotationNotFound is returned when an annotation id does not exist
	// in the register.
	ErrAnnotationNotFound = errors.New("annotation not found")
	// ErrValidation wraps input problems; handlers map it to 400.
	ErrValidation = errors.New("validation failed")
)

// Register identifies one of the three annotation tables. The tables are
// structurally identical and differ only in name and value column, so one
// repository and one service serve all three.
type Register struct {
	// Name is the human-readable singular used in messages ("allergy").
	Name string
	// Table is the backing table name.
	Table string
	// Column is the value column ("allergy_name").
	Column string
}

var (
	Allergies   = Register{Name: "allergy", Table: "employee_allergies", Column: "allergy_name"}
	Conditions  = Register{Name: "condition", Table: "employee_conditions", Column: "condition_name"}
	ClinicNotes = Register{Name: "clinic note", Table: "employee_clinicnotes", Column: "notes_name"}
)

// Annotation is one row of a register. Value maps to the register's value
// column; handlers render it under the register-specific field name.
type Annotation struct {
	ID         int64     `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	Value      string    `json:"-"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedBy  string    `db:"updated_by" json:"updated_by"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
