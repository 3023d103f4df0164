package reports

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrReportNotFound is returned when a report row is absent, deleted, or
	// scoped to a different subject than the caller asked for.
	ErrReportNotFound = errors.New("report not found")
	// ErrValidation wraps input problems; handlers map it to 400.
	ErrValidation = errors.New("validation failed")
	// ErrUpload wraps file placement and metadata failures during upload,
	// naming the offending file.
	ErrUpload = errors.New("upload failed")
)

// Report maps to the reports_metadata table. Deletion is a state transition:
// the row and its document stay in place, hidden from normal fetches.
type Report struct {
	ID            int64      `db:"id" json:"id"`
	EmployeeID    string     `db:"employee_id" json:"employee_id"`
	ReportType    string     `db:"report_type" json:"report_type"`
	ReportSubtype string     `db:"report_subtype" json:"report_subtype"`
	FileName      string     `db:"file_name" json:"file_name"`
	FilePath      string     `db:"file_path" json:"file_path"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	UploadedBy    string     `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt    time.Time  `db:"uploaded_at" json:"uploaded_at"`
	IsDeleted     bool       `db:"is_deleted" json:"is_deleted"`
	DeletedBy     *string    `db:"deleted_by" json:"deleted_by,omitempty"`
	DeletedAt     *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	DeleteReason  *string    `db:"delete_reason" json:"delete_reason,omitempty"`
}

// Instruction maps to the report_instructions table. CreatedByName is filled
// from the users table when listing.
type Instruction struct {
	ID            int64     `db:"id" json:"id"`
	ReportID      int64     `db:"report_id" json:"report_id"`
	Instruction   string    `db:"instruction" json:"instruction"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	CreatedByName string    `db:"created_by_name" json:"created_by_name,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// reportTypes enumerates the accepted report categories.
var reportTypes = map[string]string{
	"LAB":      "Lab",
	"ECG":      "Ecg",
	"SCAN":     "Scan",
	"XRAY":     "Xray",
	"PHARMACY": "Pharmacy",
	"OTHERS":   "Others",
}

// NormalizeReportType canonicalizes a report type to its enumerated form,
// returning false for unrecognized values.
func NormalizeReportType(reportType string) (string, bool) {
	t, ok := reportTypes[strings.ToUpper(strings.TrimSpace(reportType))]
	return t, ok
}
