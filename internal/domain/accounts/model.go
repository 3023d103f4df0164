package accounts

import (
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials is returned for a wrong employee id or password.
	// Handlers map it to 401 without saying which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")
	// ErrValidation wraps input problems; handlers map it to 400.
	ErrValidation = errors.New("validation failed")
)

// Credentials is the authentication slice of a users row. Password holds the
// bcrypt hash, except while FirstLogin is set: the bootstrap credential is
// the employee id itself, stored plain until the first password change.
type Credentials struct {
	EmployeeID string     `db:"employee_id"`
	Name       string     `db:"name"`
	Role       string     `db:"role"`
	Password   string     `db:"password"`
	FirstLogin bool       `db:"first_login"`
	LastLogin  *time.Time `db:"last_login"`
}
