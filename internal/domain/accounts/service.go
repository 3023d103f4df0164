package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ehms/ehms/internal/platform/auth"
)

const bcryptCost = 10

// Service provides login, the password lifecycle, and logout. New accounts
// bootstrap with the employee id as their password and must change it on
// first login; from then on only the bcrypt hash is stored.
type Service struct {
	repo    Repository
	issuer  *auth.TokenIssuer
	revoked auth.RevocationStore
}

func NewService(repo Repository, issuer *auth.TokenIssuer, revoked auth.RevocationStore) *Service {
	return &Service{repo: repo, issuer: issuer, revoked: revoked}
}

// LoginResult carries a successful authentication outcome. FirstTime tells
// the client to force a password change before anything else.
type LoginResult struct {
	Token      string `json:"token"`
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	FirstTime  bool   `json:"firstTime"`
}

// Login authenticates an employee and issues a bearer token.
func (s *Service) Login(ctx context.Context, employeeID, password string) (*LoginResult, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" || password == "" {
		return nil, fmt.Errorf("%w: employee id and password are required", ErrValidation)
	}

	creds, err := s.repo.GetCredentials(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !verifyPassword(creds, password) {
		return nil, ErrInvalidCredentials
	}

	token, _, err := s.issuer.Issue(creds.EmployeeID, creds.Name, creds.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := s.repo.TouchLastLogin(ctx, creds.EmployeeID); err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:      token,
		EmployeeID: creds.EmployeeID,
		Name:       creds.Name,
		Role:       creds.Role,
		FirstTime:  creds.FirstLogin,
	}, nil
}

// verifyPassword checks the presented password against the stored
// credential. While the account is in its first-login state the stored
// password is the plain bootstrap value; afterwards it is a bcrypt hash.
func verifyPassword(creds *Credentials, password string) bool {
	if creds.FirstLogin {
		return creds.Password == password
	}
	return bcrypt.CompareHashAndPassword([]byte(creds.Password), []byte(password)) == nil
}

// ChangePassword verifies the current password and stores the new one,
// leaving the first-login state behind.
func (s *Service) ChangePassword(ctx context.Context, employeeID, current, next string) error {
	if strings.TrimSpace(employeeID) == "" || current == "" || next == "" {
		return fmt.Errorf("%w: employee id, current and new password are required", ErrValidation)
	}
	if current == next {
		return fmt.Errorf("%w: new password must differ from the current one", ErrValidation)
	}

	creds, err := s.repo.GetCredentials(ctx, employeeID)
	if err != nil {
		return err
	}
	if !verifyPassword(creds, current) {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.SetPassword(ctx, employeeID, string(hash))
}

// ResetPassword stores a new password for the account holding the given
// email address.
func (s *Service) ResetPassword(ctx context.Context, email, next string) error {
	if strings.TrimSpace(email) == "" || next == "" {
		return fmt.Errorf("%w: email and new password are required", ErrValidation)
	}

	creds, err := s.repo.GetCredentialsByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.SetPassword(ctx, creds.EmployeeID, string(hash))
}

// Logout revokes the presented token until its natural expiry. An already
// invalid token is not an error: the caller's goal is achieved either way.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.EmployeeID, expiresAt)
}
