package accounts

import "context"

// Repository defines the persistence operations of the accounts domain. It
// is the only code that touches the users password column.
type Repository interface {
	GetCredentials(ctx context.Context, employeeID string) (*Credentials, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	// SetPassword stores a new password hash and clears the first-login flag.
	SetPassword(ctx context.Context, employeeID, passwordHash string) error
	TouchLastLogin(ctx context.Context, employeeID string) error
}
