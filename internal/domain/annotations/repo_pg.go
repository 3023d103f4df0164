package annotations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ehms/ehms/internal/platform/db"
)

// repoPG serves one register; table and column names come from the fixed
// Register values, never from request input.
type repoPG struct {
	q   db.Querier
	reg Register
}

// NewRepoPG creates the Postgres-backed repository for one register.
func NewRepoPG(q db.Querier, reg Register) Repository {
	return &repoPG{q: q, reg: reg}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.q)
}

func (r *repoPG) cols() string {
	return fmt.Sprintf("id, employee_id, %s, created_by, created_at, updated_by, updated_at", r.reg.Column)
}

func scanAnnotation(row pgx.Row) (*Annotation, error) {
	var a Annotation
	err := row.Scan(&a.ID, &a.EmployeeID, &a.Value,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedBy, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnnotationNotFound
		}
		return nil, fmt.Errorf("scan annotation: %w", err)
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Annotation) error {
	err := r.conn(ctx).QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (employee_id, %s, created_by, created_at, updated_by, updated_at)
        VALUES ($1, $2, $3, NOW(), $3, NOW())
        RETURNING id, created_at, updated_at`, r.reg.Table, r.reg.Column),
		a.EmployeeID, a.Value, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert %s: %w", r.reg.Name, err)
	}
	a.UpdatedBy = a.CreatedBy
	return nil
}

func (r *repoPG) ListByEmployee(ctx context.Context, employeeID string) ([]*Annotation, error) {
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE employee_id = $1 ORDER BY id`, r.cols(), r.reg.Table),
		employeeID)
	if err != nil {
		return nil, fmt.Errorf("list %s rows: %w", r.reg.Name, err)
	}
	defer rows.Close()

	var result []*Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", r.reg.Name, err)
	}
	return result, nil
}

func (r *repoPG) Latest(ctx context.Context, employeeID string) (*Annotation, error) {
	return scanAnnotation(r.conn(ctx).QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE employee_id = $1
         ORDER BY updated_at DESC, id DESC LIMIT 1`, r.cols(), r.reg.Table),
		employeeID))
}

func (r *repoPG) Update(ctx context.Context, id int64, value, updatedBy string) (*Annotation, error) {
	return scanAnnotation(r.conn(ctx).QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET %s = $2, updated_by = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING %s`, r.reg.Table, r.reg.Column, r.cols()),
		id, value, updatedBy))
}
