package accounts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ehms/ehms/internal/platform/auth"
)

type mockRepo struct {
	byID    map[string]*Credentials
	byEmail map[string]string // email -> employee id

	lastLoginTouched []string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		byID:    make(map[string]*Credentials),
		byEmail: make(map[string]string),
	}
}

func (m *mockRepo) GetCredentials(_ context.Context, employeeID string) (*Credentials, error) {
	c, ok := m.byID[employeeID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return c, nil
}

func (m *mockRepo) GetCredentialsByEmail(_ context.Context, email string) (*Credentials, error) {
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return m.byID[id], nil
}

func (m *mockRepo) SetPassword(_ context.Context, employeeID, passwordHash string) error {
	c, ok := m.byID[employeeID]
	if !ok {
		return ErrAccountNotFound
	}
	c.Password = passwordHash
	c.FirstLogin = false
	return nil
}

func (m *mockRepo) TouchLastLogin(_ context.Context, employeeID string) error {
	m.lastLoginTouched = append(m.lastLoginTouched, employeeID)
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepo, *auth.MemoryRevocationStore) {
	t.Helper()
	repo := newMockRepo()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	revoked := auth.NewMemoryRevocationStore()
	t.Cleanup(revoked.Close)
	return NewService(repo, issuer, revoked), repo, revoked
}

func seedFirstLogin(repo *mockRepo, employeeID string) {
	repo.byID[employeeID] = &Credentials{
		EmployeeID: employeeID,
		Name:       "Asha Rao",
		Role:       "EMPLOYEE",
		Password:   employeeID,
		FirstLogin: true,
	}
}

func seedHashed(t *testing.T, repo *mockRepo, employeeID, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash seed password: %v", err)
	}
	repo.byID[employeeID] = &Credentials{
		EmployeeID: employeeID,
		Name:       "Asha Rao",
		Role:       "EMPLOYEE",
		Password:   string(hash),
	}
}

func TestLogin_FirstTimeUsesBootstrapCredential(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedFirstLogin(repo, "L100001")

	result, err := svc.Login(context.Background(), "L100001", "L100001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.FirstTime {
		t.Error("expected firstTime flag for bootstrap login")
	}
	if result.Token == "" {
		t.Error("expected a token")
	}
	if len(repo.lastLoginTouched) != 1 || repo.lastLoginTouched[0] != "L100001" {
		t.Error("expected last_login touched")
	}
}

func TestLogin_HashedPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedHashed(t, repo, "L100001", "s3cret")

	result, err := svc.Login(context.Background(), "L100001", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FirstTime {
		t.Error("did not expect firstTime after password change")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedHashed(t, repo, "L100001", "s3cret")

	_, err := svc.Login(context.Background(), "L100001", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownAccountIsIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "NOBODY", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown account, got %v", err)
	}
}

func TestChangePassword_ClearsFirstLogin(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedFirstLogin(repo, "L100001")

	ctx := context.Background()
	if err := svc.ChangePassword(ctx, "L100001", "L100001", "n3w-pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	creds := repo.byID["L100001"]
	if creds.FirstLogin {
		t.Error("expected first_login cleared")
	}
	if creds.Password == "n3w-pass" || creds.Password == "L100001" {
		t.Error("expected a hash stored, not the plain password")
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.Password), []byte("n3w-pass")) != nil {
		t.Error("stored hash does not match the new password")
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedHashed(t, repo, "L100001", "s3cret")

	err := svc.ChangePassword(context.Background(), "L100001", "wrong", "n3w-pass")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestChangePassword_SamePassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedHashed(t, repo, "L100001", "s3cret")

	err := svc.ChangePassword(context.Background(), "L100001", "s3cret", "s3cret")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResetPassword_ByEmail(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedHashed(t, repo, "L100001", "s3cret")
	repo.byEmail["asha@example.com"] = "L100001"

	ctx := context.Background()
	if err := svc.ResetPassword(ctx, "Asha@Example.com", "n3w-pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(repo.byID["L100001"].Password), []byte("n3w-pass")) != nil {
		t.Error("stored hash does not match the reset password")
	}
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.ResetPassword(context.Background(), "ghost@example.com", "n3w-pass")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLogout_RevokesTokenUntilExpiry(t *testing.T) {
	svc, repo, revoked := newTestService(t)
	seedHashed(t, repo, "L100001", "s3cret")

	ctx := context.Background()
	result, err := svc.Login(ctx, "L100001", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, result.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	claims, err := issuer.Parse(result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		t.Fatalf("check revocation: %v", err)
	}
	if !isRevoked {
		t.Error("expected the token's jti revoked after logout")
	}
}

func TestLogout_GarbageTokenIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)

	if err := svc.Logout(context.Background(), "not-a-token"); err != nil {
		t.Fatalf("expected nil for an invalid token, got %v", err)
	}
}
