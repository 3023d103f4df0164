package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ehms/ehms/internal/platform/db"
)

type repoPG struct{ q db.Querier }

// NewRepoPG creates the Postgres-backed analytics repository.
func NewRepoPG(q db.Querier) Repository {
	return &repoPG{q: q}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.q)
}

func (r *repoPG) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	var d AdminDashboard

	err := r.conn(ctx).QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE UPPER(role) = 'DOCTOR'),
               COUNT(*) FILTER (WHERE UPPER(role) = 'TECHNICIAN')
        FROM users`,
	).Scan(&d.TotalEmployees, &d.TotalDoctors, &d.TotalTechnicians)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	err = r.conn(ctx).QueryRow(ctx, `
        SELECT COUNT(*) FILTER (WHERE uploaded_at::date = CURRENT_DATE),
               COUNT(*) FILTER (WHERE uploaded_at >= date_trunc('week', NOW())),
               COUNT(*) FILTER (WHERE uploaded_at >= date_trunc('month', NOW()))
        FROM reports_metadata
        WHERE is_deleted = FALSE`,
	).Scan(&d.ReportsToday, &d.ReportsThisWeek, &d.ReportsThisMonth)
	if err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	d.MonthlyUploads, err = r.monthCounts(ctx, `
        SELECT to_char(date_trunc('month', uploaded_at), 'YYYY-MM') AS month, COUNT(*)
        FROM reports_metadata
        WHERE is_deleted = FALSE AND uploaded_at >= date_trunc('month', NOW()) - INTERVAL '11 months'
        GROUP BY month
        ORDER BY month`)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) EmployeeDashboard(ctx context.Context, employeeID string) (*EmployeeDashboard, error) {
	var d EmployeeDashboard

	err := r.conn(ctx).QueryRow(ctx, `
        SELECT COUNT(*) FROM reports_metadata
        WHERE employee_id = $1 AND is_deleted = FALSE`, employeeID,
	).Scan(&d.OwnReports)
	if err != nil {
		return nil, fmt.Errorf("count own reports: %w", err)
	}

	err = r.conn(ctx).QueryRow(ctx, `
        SELECT COUNT(DISTINCT fm.dependent_id),
               COUNT(rm.id) FILTER (WHERE rm.is_deleted = FALSE)
        FROM family_members fm
        LEFT JOIN reports_metadata rm ON rm.employee_id = fm.dependent_id
        WHERE fm.employee_id = $1`, employeeID,
	).Scan(&d.Dependents, &d.FamilyReports)
	if err != nil {
		return nil, fmt.Errorf("count family reports: %w", err)
	}
	return &d, nil
}

func (r *repoPG) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	var err error

	o.TodayByType, err = r.typeCounts(ctx, `
        SELECT report_type, COUNT(*)
        FROM reports_metadata
        WHERE is_deleted = FALSE AND uploaded_at::date = CURRENT_DATE
        GROUP BY report_type
        ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}

	o.TypeDistribution, err = r.subtypeCounts(ctx)
	if err != nil {
		return nil, err
	}

	o.MonthlyTrends, err = r.monthCounts(ctx, `
        SELECT to_char(date_trunc('month', uploaded_at), 'YYYY-MM') AS month, COUNT(*)
        FROM reports_metadata
        WHERE is_deleted = FALSE AND uploaded_at >= date_trunc('month', NOW()) - INTERVAL '11 months'
        GROUP BY month
        ORDER BY month`)
	if err != nil {
		return nil, err
	}

	o.DailyActivity, err = r.dayCounts(ctx)
	if err != nil {
		return nil, err
	}

	o.TopUploaders, err = r.topUploaders(ctx)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repoPG) monthCounts(ctx context.Context, query string) ([]MonthCount, error) {
	rows, err := r.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("monthly counts: %w", err)
	}
	defer rows.Close()

	result := []MonthCount{}
	for rows.Next() {
		var m MonthCount
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, fmt.Errorf("scan month count: %w", err)
		}
		result = append(result, m)
	}
	return result, rowsErr(rows)
}

func (r *repoPG) typeCounts(ctx context.Context, query string) ([]TypeCount, error) {
	rows, err := r.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("type counts: %w", err)
	}
	defer rows.Close()

	result := []TypeCount{}
	for rows.Next() {
		var t TypeCount
		if err := rows.Scan(&t.ReportType, &t.Count); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		result = append(result, t)
	}
	return result, rowsErr(rows)
}

func (r *repoPG) subtypeCounts(ctx context.Context) ([]SubtypeCount, error) {
	rows, err := r.conn(ctx).Query(ctx, `
        SELECT report_type, report_subtype, COUNT(*)
        FROM reports_metadata
        WHERE is_deleted = FALSE
        GROUP BY report_type, report_subtype
        ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("subtype counts: %w", err)
	}
	defer rows.Close()

	result := []SubtypeCount{}
	for rows.Next() {
		var s SubtypeCount
		if err := rows.Scan(&s.ReportType, &s.ReportSubtype, &s.Count); err != nil {
			return nil, fmt.Errorf("scan subtype count: %w", err)
		}
		result = append(result, s)
	}
	return result, rowsErr(rows)
}

func (r *repoPG) dayCounts(ctx context.Context) ([]DayCount, error) {
	rows, err := r.conn(ctx).Query(ctx, `
        SELECT to_char(uploaded_at::date, 'YYYY-MM-DD') AS day, COUNT(*)
        FROM reports_metadata
        WHERE is_deleted = FALSE AND uploaded_at >= CURRENT_DATE - INTERVAL '29 days'
        GROUP BY day
        ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	defer rows.Close()

	result := []DayCount{}
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, fmt.Errorf("scan day count: %w", err)
		}
		result = append(result, d)
	}
	return result, rowsErr(rows)
}

func (r *repoPG) topUploaders(ctx context.Context) ([]UploaderCount, error) {
	rows, err := r.conn(ctx).Query(ctx, `
        SELECT rm.uploaded_by, COALESCE(u.name, ''), COUNT(*)
        FROM reports_metadata rm
        LEFT JOIN users u ON u.employee_id = rm.uploaded_by
        WHERE rm.is_deleted = FALSE
        GROUP BY rm.uploaded_by, u.name
        ORDER BY COUNT(*) DESC
        LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("top uploaders: %w", err)
	}
	defer rows.Close()

	result := []UploaderCount{}
	for rows.Next() {
		var u UploaderCount
		if err := rows.Scan(&u.UploadedBy, &u.Name, &u.Count); err != nil {
			return nil, fmt.Errorf("scan uploader count: %w", err)
		}
		result = append(result, u)
	}
	return result, rowsErr(rows)
}

func rowsErr(rows pgx.Rows) error {
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}
