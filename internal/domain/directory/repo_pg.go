package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ehms/ehms/internal/platform/db"
)

type repoPG struct{ q db.Querier }

// NewRepoPG creates the Postgres-backed directory repository.
func NewRepoPG(q db.Querier) Repository {
	return &repoPG{q: q}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.q)
}

const employeeCols = `employee_id, name, email, phone, address, department, role, status,
	dob, blood, refer_hospital, first_login, created_at, last_login`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.EmployeeID, &e.Name, &e.Email, &e.Phone, &e.Address,
		&e.Department, &e.Role, &e.Status, &e.DOB, &e.Blood,
		&e.ReferHospital, &e.FirstLogin, &e.CreatedAt, &e.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	return &e, nil
}

const dependentCols = `id, employee_id, dependent_id, name, relation, status, blood, dob, created_at`

func scanDependent(row pgx.Row) (*Dependent, error) {
	var d Dependent
	err := row.Scan(&d.ID, &d.EmployeeID, &d.DependentID, &d.Name,
		&d.Relation, &d.Status, &d.Blood, &d.DOB, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("scan dependent: %w", err)
	}
	return &d, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) CreateEmployee(ctx context.Context, e *Employee, initialPassword string) error {
	_, err := r.conn(ctx).Exec(ctx, `
        INSERT INTO users (employee_id, name, email, phone, address, department, role, status,
            dob, blood, refer_hospital, first_login, password, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, $12, NOW())`,
		e.EmployeeID, e.Name, e.Email, e.Phone, e.Address, e.Department,
		e.Role, e.Status, e.DOB, e.Blood, e.ReferHospital, initialPassword,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmployee
		}
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

func (r *repoPG) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	return scanEmployee(r.conn(ctx).QueryRow(ctx,
		`SELECT `+employeeCols+` FROM users WHERE employee_id = $1`, employeeID))
}

func (r *repoPG) UpdateEmployee(ctx context.Context, e *Employee) error {
	tag, err := r.conn(ctx).Exec(ctx, `
        UPDATE users
        SET name = $2, email = $3, phone = $4, address = $5, department = $6,
            status = $7, role = $8, refer_hospital = $9
        WHERE employee_id = $1`,
		e.EmployeeID, e.Name, e.Email, e.Phone, e.Address, e.Department,
		e.Status, e.Role, e.ReferHospital,
	)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubjectNotFound
	}
	return nil
}

func (r *repoPG) ListEmployees(ctx context.Context) ([]*Employee, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+employeeCols+` FROM users ORDER BY employee_id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return collectEmployees(rows)
}

func (r *repoPG) ListEmployeesByRole(ctx context.Context, role string) ([]*Employee, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+employeeCols+` FROM users WHERE UPPER(role) = UPPER($1) ORDER BY employee_id`, role)
	if err != nil {
		return nil, fmt.Errorf("list employees by role: %w", err)
	}
	return collectEmployees(rows)
}

func collectEmployees(rows pgx.Rows) ([]*Employee, error) {
	defer rows.Close()
	var result []*Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return result, nil
}

func (r *repoPG) GetDependent(ctx context.Context, dependentID string) (*Dependent, error) {
	return scanDependent(r.conn(ctx).QueryRow(ctx,
		`SELECT `+dependentCols+` FROM family_members WHERE dependent_id = $1`, dependentID))
}

func (r *repoPG) ListFamily(ctx context.Context, employeeID string) ([]*Dependent, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+dependentCols+` FROM family_members WHERE employee_id = $1 ORDER BY id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list family: %w", err)
	}
	return collectDependents(rows)
}

func (r *repoPG) ListAllDependents(ctx context.Context) ([]*Dependent, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+dependentCols+` FROM family_members ORDER BY employee_id, id`)
	if err != nil {
		return nil, fmt.Errorf("list dependents: %w", err)
	}
	return collectDependents(rows)
}

func collectDependents(rows pgx.Rows) ([]*Dependent, error) {
	defer rows.Close()
	var result []*Dependent
	for rows.Next() {
		d, err := scanDependent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependents: %w", err)
	}
	return result, nil
}

func (r *repoPG) CreateDependent(ctx context.Context, d *Dependent) error {
	err := r.conn(ctx).QueryRow(ctx, `
        INSERT INTO family_members (employee_id, dependent_id, name, relation, status, blood, dob, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING id`,
		d.EmployeeID, d.DependentID, d.Name, d.Relation, d.Status, d.Blood, d.DOB,
	).Scan(&d.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: dependent id %s already exists", ErrValidation, d.DependentID)
		}
		return fmt.Errorf("insert dependent: %w", err)
	}
	return nil
}

func (r *repoPG) UpdateDependent(ctx context.Context, d *Dependent) error {
	tag, err := r.conn(ctx).Exec(ctx, `
        UPDATE family_members
        SET name = $3, relation = $4, status = $5, blood = $6, dob = $7
        WHERE dependent_id = $1 AND employee_id = $2`,
		d.DependentID, d.EmployeeID, d.Name, d.Relation, d.Status, d.Blood, d.DOB,
	)
	if err != nil {
		return fmt.Errorf("update dependent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubjectNotFound
	}
	return nil
}

func (r *repoPG) DeleteDependents(ctx context.Context, dependentIDs []string) error {
	if len(dependentIDs) == 0 {
		return nil
	}
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM family_members WHERE dependent_id = ANY($1)`, dependentIDs)
	if err != nil {
		return fmt.Errorf("delete dependents: %w", err)
	}
	return nil
}

func (r *repoPG) LockDependentIDs(ctx context.Context, base string) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT dependent_id FROM family_members WHERE dependent_id LIKE $1 || '%' FOR UPDATE`, base)
	if err != nil {
		return nil, fmt.Errorf("lock dependent ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan dependent id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependent ids: %w", err)
	}
	return ids, nil
}

func (r *repoPG) FamilyLinkExists(ctx context.Context, employeeID, dependentID string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM family_members
            WHERE employee_id = $1 AND dependent_id = $2
        )`, employeeID, dependentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check family link: %w", err)
	}
	return exists, nil
}
