package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ehms/ehms/internal/platform/db"
)

type repoPG struct{ q db.Querier }

// NewRepoPG creates the Postgres-backed report repository.
func NewRepoPG(q db.Querier) Repository {
	return &repoPG{q: q}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.q)
}

const reportCols = `id, employee_id, report_type, report_subtype, file_name, file_path,
	notes, uploaded_by, uploaded_at, is_deleted, deleted_by, deleted_at, delete_reason`

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(&rep.ID, &rep.EmployeeID, &rep.ReportType, &rep.ReportSubtype,
		&rep.FileName, &rep.FilePath, &rep.Notes, &rep.UploadedBy, &rep.UploadedAt,
		&rep.IsDeleted, &rep.DeletedBy, &rep.DeletedAt, &rep.DeleteReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return &rep, nil
}

func (r *repoPG) CreateReport(ctx context.Context, rep *Report) error {
	err := r.conn(ctx).QueryRow(ctx, `
        INSERT INTO reports_metadata (employee_id, report_type, report_subtype,
            file_name, file_path, notes, uploaded_by, uploaded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING id, uploaded_at`,
		rep.EmployeeID, rep.ReportType, rep.ReportSubtype,
		rep.FileName, rep.FilePath, rep.Notes, rep.UploadedBy,
	).Scan(&rep.ID, &rep.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *repoPG) ListReports(ctx context.Context, employeeID string) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+reportCols+` FROM reports_metadata
         WHERE employee_id = $1 AND is_deleted = FALSE
         ORDER BY id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var result []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return result, nil
}

func (r *repoPG) GetReportForSubject(ctx context.Context, reportID int64, employeeID string) (*Report, error) {
	return scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM reports_metadata
         WHERE id = $1 AND employee_id = $2 AND is_deleted = FALSE`,
		reportID, employeeID))
}

func (r *repoPG) GetReportMetadata(ctx context.Context, reportID int64) (*Report, error) {
	return scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM reports_metadata WHERE id = $1`, reportID))
}

func (r *repoPG) SoftDeleteReport(ctx context.Context, reportID int64, deletedBy, reason string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
        UPDATE reports_metadata
        SET is_deleted = TRUE, deleted_by = $2, deleted_at = NOW(), delete_reason = $3
        WHERE id = $1 AND is_deleted = FALSE`,
		reportID, deletedBy, reason,
	)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *repoPG) CreateInstruction(ctx context.Context, in *Instruction) error {
	err := r.conn(ctx).QueryRow(ctx, `
        INSERT INTO report_instructions (report_id, instruction, created_by, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, created_at`,
		in.ReportID, in.Instruction, in.CreatedBy,
	).Scan(&in.ID, &in.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert instruction: %w", err)
	}
	return nil
}

const instructionCols = `ri.id, ri.report_id, ri.instruction, ri.created_by,
	COALESCE(u.name, ''), ri.created_at`

func (r *repoPG) ListInstructions(ctx context.Context, reportID int64) ([]*Instruction, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+instructionCols+`
         FROM report_instructions ri
         LEFT JOIN users u ON u.employee_id = ri.created_by
         WHERE ri.report_id = $1
         ORDER BY ri.created_at DESC, ri.id DESC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}
	return collectInstructions(rows)
}

func (r *repoPG) LatestInstructions(ctx context.Context, employeeID string) ([]*Instruction, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT DISTINCT ON (ri.report_id) `+instructionCols+`
         FROM report_instructions ri
         JOIN reports_metadata rm ON rm.id = ri.report_id
         LEFT JOIN users u ON u.employee_id = ri.created_by
         WHERE rm.employee_id = $1 AND rm.is_deleted = FALSE
         ORDER BY ri.report_id, ri.created_at DESC, ri.id DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("latest instructions: %w", err)
	}
	return collectInstructions(rows)
}

func collectInstructions(rows pgx.Rows) ([]*Instruction, error) {
	defer rows.Close()
	var result []*Instruction
	for rows.Next() {
		var in Instruction
		err := rows.Scan(&in.ID, &in.ReportID, &in.Instruction,
			&in.CreatedBy, &in.CreatedByName, &in.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan instruction: %w", err)
		}
		result = append(result, &in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instructions: %w", err)
	}
	return result, nil
}
