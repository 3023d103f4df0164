package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/ehms/ehms/internal/platform/db"
)

// PGRevocationStore persists revoked JTIs in the revoked_tokens table so
// that a logout on one instance is honored by every instance.
type PGRevocationStore struct {
	q db.Querier
}

func NewPGRevocationStore(q db.Querier) *PGRevocationStore {
	return &PGRevocationStore{q: q}
}

func (s *PGRevocationStore) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	_, err := s.q.Exec(ctx, `
        INSERT INTO revoked_tokens (jti, user_id, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (jti) DO NOTHING`,
		jti, userID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *PGRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.q.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM revoked_tokens
            WHERE jti = $1 AND expires_at > NOW()
        )`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return revoked, nil
}

func (s *PGRevocationStore) Entries(ctx context.Context) ([]RevocationInfo, error) {
	rows, err := s.q.Query(ctx, `
        SELECT jti, user_id, expires_at
        FROM revoked_tokens
        WHERE expires_at > NOW()
        ORDER BY expires_at`)
	if err != nil {
		return nil, fmt.Errorf("list revocations: %w", err)
	}
	defer rows.Close()

	var entries []RevocationInfo
	for rows.Next() {
		var info RevocationInfo
		if err := rows.Scan(&info.JTI, &info.UserID, &info.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan revocation: %w", err)
		}
		entries = append(entries, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revocations: %w", err)
	}
	return entries, nil
}

// Purge deletes entries for tokens that have passed their natural expiry.
// Run periodically; the table only needs to cover live tokens.
func (s *PGRevocationStore) Purge(ctx context.Context) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge revocations: %w", err)
	}
	return tag.RowsAffected(), nil
}
