package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mindmatters/mindmatters-api/internal/models"
	"github.com/mindmatters/mindmatters-api/internal/storage"
)

// UpsertResetToken stores a token, replacing the owner and deadline if the
// token value already exists.
func (s *Store) UpsertResetToken(ctx context.Context, token models.ResetToken) error {
	const query = `
		INSERT INTO reset_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`
	if _, err := s.db.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiresAt); err != nil {
		return fmt.Errorf("upsert reset token: %w", err)
	}
	return nil
}

// FindResetToken loads a token regardless of its expiry.
func (s *Store) FindResetToken(ctx context.Context, token string) (models.ResetToken, error) {
	const query = `
		SELECT token, user_id, expires_at, created_at
		FROM reset_tokens
		WHERE token = $1`
	var rt models.ResetToken
	err := s.db.QueryRowContext(ctx, query, token).Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ResetToken{}, storage.ErrNotFound
		}
		return models.ResetToken{}, fmt.Errorf("find reset token: %w", err)
	}
	return rt, nil
}

// ConsumeResetToken deletes a live token and updates the owner's password in
// one transaction. Two concurrent calls for the same token cannot both see
// the row, so at most one password change wins.
func (s *Store) ConsumeResetToken(ctx context.Context, token string, nowMillis int64, passwordHash string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var userID int64
	err = tx.QueryRowContext(ctx,
		`DELETE FROM reset_tokens WHERE token = $1 AND expires_at >= $2 RETURNING user_id`,
		token, nowMillis,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("delete reset token: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reset transaction: %w", err)
	}
	return nil
}

// DeleteExpiredResetTokens removes tokens whose deadline passed before nowMillis.
func (s *Store) DeleteExpiredResetTokens(ctx context.Context, nowMillis int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE expires_at < $1`, nowMillis)
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted reset tokens: %w", err)
	}
	return n, nil
}
