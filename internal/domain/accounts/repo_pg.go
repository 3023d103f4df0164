package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ehms/ehms/internal/platform/db"
)

type repoPG struct{ q db.Querier }

// NewRepoPG creates the Postgres-backed accounts repository.
func NewRepoPG(q db.Querier) Repository {
	return &repoPG{q: q}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.q)
}

const credentialCols = `employee_id, name, role, password, first_login, last_login`

func scanCredentials(row pgx.Row) (*Credentials, error) {
	var c Credentials
	err := row.Scan(&c.EmployeeID, &c.Name, &c.Role, &c.Password, &c.FirstLogin, &c.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan credentials: %w", err)
	}
	return &c, nil
}

func (r *repoPG) GetCredentials(ctx context.Context, employeeID string) (*Credentials, error) {
	return scanCredentials(r.conn(ctx).QueryRow(ctx,
		`SELECT `+credentialCols+` FROM users WHERE employee_id = $1`, employeeID))
}

func (r *repoPG) GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	return scanCredentials(r.conn(ctx).QueryRow(ctx,
		`SELECT `+credentialCols+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *repoPG) SetPassword(ctx context.Context, employeeID, passwordHash string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
        UPDATE users SET password = $2, first_login = FALSE
        WHERE employee_id = $1`,
		employeeID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *repoPG) TouchLastLogin(ctx context.Context, employeeID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET last_login = NOW() WHERE employee_id = $1`, employeeID)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}
