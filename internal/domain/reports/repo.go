package reports

import "context"

// Repository defines the persistence operations of the report store and its
// instruction log.
type Repository interface {
	// CreateReport inserts a metadata row and fills in the generated id and
	// upload timestamp.
	CreateReport(ctx context.Context, r *Report) error
	// ListReports returns the non-deleted reports of one subject.
	ListReports(ctx context.Context, employeeID string) ([]*Report, error)
	// GetReportForSubject resolves a non-deleted report scoped to the given
	// subject; anything else is ErrReportNotFound.
	GetReportForSubject(ctx context.Context, reportID int64, employeeID string) (*Report, error)
	// GetReportMetadata returns the raw row regardless of deletion state.
	GetReportMetadata(ctx context.Context, reportID int64) (*Report, error)
	// SoftDeleteReport flips is_deleted on a live row, stamping the deletion
	// triple. An absent or already-deleted row is ErrReportNotFound.
	SoftDeleteReport(ctx context.Context, reportID int64, deletedBy, reason string) error

	CreateInstruction(ctx context.Context, in *Instruction) error
	// ListInstructions returns a report's instructions with creator names.
	ListInstructions(ctx context.Context, reportID int64) ([]*Instruction, error)
	// LatestInstructions returns, for every report of a subject, that
	// report's most recent instruction.
	LatestInstructions(ctx context.Context, employeeID string) ([]*Instruction, error)
}
