package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLineageBroken is returned by Rotate when the predecessor row is
// missing, revoked, or owned by someone else. The transaction rolls
// back; a successor row is never inserted on top of a broken chain.
var ErrLineageBroken = errors.New("refresh session lineage broken")

// DB is the subset of pgxpool.Pool the store uses. Narrowed for tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store persists refresh session lineage rows.
type Store struct {
	db DB
}

// NewStore creates a mirror [Store] on a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// NewStoreWithDB creates a mirror [Store] on any DB implementation.
func NewStoreWithDB(db DB) *Store {
	return &Store{db: db}
}

// Session is one lineage row.
type Session struct {
	JTI            string
	UserID         string
	IssuedAt       time.Time
	ExpiresAt      time.Time
	RevokedAt      *time.Time
	RotatedFromJTI *string
}

// Record inserts a freshly issued identifier as a lineage root.
func (s *Store) Record(ctx context.Context, jti, userID string, issuedAt, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_sessions (jti, user_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)`,
		jti, userID, issuedAt.UTC(), expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("record refresh session: %w", err)
	}
	return nil
}

// Rotate marks oldJti revoked and inserts newJti as its successor in
// one transaction. If the predecessor row cannot be claimed the whole
// step fails with ErrLineageBroken; the chain never forks and never
// grows past a revoked link.
func (s *Store) Rotate(ctx context.Context, oldJti, newJti, userID string, expiresAt time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE refresh_sessions
		SET revoked_at = now()
		WHERE jti = $1 AND user_id = $2 AND revoked_at IS NULL`,
		oldJti, userID)
	if err != nil {
		return fmt.Errorf("retire predecessor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLineageBroken
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_sessions (jti, user_id, issued_at, expires_at, rotated_from_jti)
		VALUES ($1, $2, now(), $3, $4)`,
		newJti, userID, expiresAt.UTC(), oldJti)
	if err != nil {
		return fmt.Errorf("insert successor: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rotate: %w", err)
	}
	return nil
}

// Revoke marks jti revoked. Rows already revoked, or absent entirely,
// leave the call a no-op success.
func (s *Store) Revoke(ctx context.Context, jti string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE refresh_sessions
		SET revoked_at = now()
		WHERE jti = $1 AND revoked_at IS NULL`,
		jti)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// RevokeAllByUser marks every live row of a user revoked and returns
// the row count.
func (s *Store) RevokeAllByUser(ctx context.Context, userID string) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE refresh_sessions
		SET revoked_at = now()
		WHERE user_id = $1 AND revoked_at IS NULL`,
		userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user refresh sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CleanupExpired deletes rows whose expiry passed before the cutoff.
// Run it from a periodic job; nothing in the hot path depends on it.
func (s *Store) CleanupExpired(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM refresh_sessions
		WHERE expires_at < $1`,
		cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired refresh sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Lineage returns the rotation chain ending at jti, oldest first.
func (s *Store) Lineage(ctx context.Context, jti string) ([]Session, error) {
	rows, err := s.db.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT jti, user_id, issued_at, expires_at, revoked_at, rotated_from_jti
			FROM refresh_sessions
			WHERE jti = $1
			UNION ALL
			SELECT p.jti, p.user_id, p.issued_at, p.expires_at, p.revoked_at, p.rotated_from_jti
			FROM refresh_sessions p
			JOIN chain c ON c.rotated_from_jti = p.jti
		)
		SELECT jti, user_id, issued_at, expires_at, revoked_at, rotated_from_jti
		FROM chain`,
		jti)
	if err != nil {
		return nil, fmt.Errorf("query lineage: %w", err)
	}
	defer rows.Close()

	var chain []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.JTI, &sess.UserID, &sess.IssuedAt, &sess.ExpiresAt, &sess.RevokedAt, &sess.RotatedFromJTI); err != nil {
			return nil, fmt.Errorf("scan lineage row: %w", err)
		}
		chain = append(chain, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lineage: %w", err)
	}

	// The CTE walks successor to root; callers read history forward.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
