package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// TokenRepo persists refresh tokens. Only the SHA-256 hex of a token is
// stored; deleting the row revokes it.
type TokenRepo struct{ DB *sqlx.DB }

func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the owning user id when the token exists and
// now <= expires_at. Otherwise it returns ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	var row struct {
		UserID    uint64    `db:"user_id"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := r.DB.GetContext(ctx, &row,
		"SELECT user_id, expires_at FROM refresh_tokens WHERE token_hash=? LIMIT 1", tokenHash)
	if err != nil {
		return 0, notFound(err)
	}
	if now.After(row.ExpiresAt) {
		return 0, ErrNotFound
	}
	return row.UserID, nil
}

// Rotate atomically swaps a valid token for a new one and returns the
// owning user id. Two concurrent rotations of the same token cannot both
// succeed: the row is locked and deleted inside one transaction.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, exp, now time.Time) (userID uint64, err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var row struct {
		UserID    uint64    `db:"user_id"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	if err := tx.GetContext(ctx, &row,
		"SELECT user_id, expires_at FROM refresh_tokens WHERE token_hash=? FOR UPDATE", oldHash); err != nil {
		return 0, notFound(err)
	}
	if now.After(row.ExpiresAt) {
		return 0, ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token_hash=?", oldHash); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		row.UserID, newHash, exp); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return row.UserID, nil
}

// DeleteForUser deletes the token only when it belongs to userID and
// reports whether a row was removed.
func (r *TokenRepo) DeleteForUser(ctx context.Context, tokenHash string, userID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token_hash=? AND user_id=?", tokenHash, userID)
	if err != nil {
		return false, err
	}
	return deleted(res)
}

// DeleteAllForUser revokes every token of a user.
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

// DeleteExpired removes tokens whose expiry lies before now.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at < ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func deleted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
