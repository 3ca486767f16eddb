package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mindmatters/mindmatters-api/internal/models"
)

// RecordSignIn appends a login audit row. Empty ip or user agent are stored as NULL.
func (s *Store) RecordSignIn(ctx context.Context, signIn models.SignIn) error {
	const query = `INSERT INTO signins (user_id, ip, user_agent) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, signIn.UserID, nullString(signIn.IP), nullString(signIn.UserAgent)); err != nil {
		return fmt.Errorf("insert signin: %w", err)
	}
	return nil
}

// ListSignIns returns every sign-in joined with its account, newest first.
func (s *Store) ListSignIns(ctx context.Context) ([]models.SignInEntry, error) {
	const query = `
		SELECT s.id, s.created_at, s.ip, s.user_agent, u.id, u.name, u.email, u.role
		FROM signins s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list signins: %w", err)
	}
	defer rows.Close()

	entries := make([]models.SignInEntry, 0)
	for rows.Next() {
		var (
			e         models.SignInEntry
			ip, agent sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SignedInAt, &ip, &agent, &e.UserID, &e.Name, &e.Email, &e.Role); err != nil {
			return nil, fmt.Errorf("scan signin: %w", err)
		}
		e.IP = stringPtr(ip)
		e.UserAgent = stringPtr(agent)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signins: %w", err)
	}
	return entries, nil
}
