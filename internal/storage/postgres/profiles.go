package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mindmatters/mindmatters-api/internal/models"
	"github.com/mindmatters/mindmatters-api/internal/storage"
)

// FindProfile loads the profile for userID.
func (s *Store) FindProfile(ctx context.Context, userID int64) (models.Profile, error) {
	const query = `
		SELECT user_id, age, locality, COALESCE(personal_notes, ''), COALESCE(goals, ''), updated_at
		FROM profiles
		WHERE user_id = $1`
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, storage.ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

// UpdateProfile renames the account and upserts its profile in one transaction.
func (s *Store) UpdateProfile(ctx context.Context, userID int64, name string, profile models.Profile) (_ models.User, _ models.Profile, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, models.Profile{}, fmt.Errorf("begin profile transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var user models.User
	err = tx.QueryRowContext(ctx, `
		UPDATE users SET name = $1 WHERE id = $2
		RETURNING id, name, email, password_hash, role, created_at`,
		name, userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.Profile{}, storage.ErrNotFound
		}
		return models.User{}, models.Profile{}, fmt.Errorf("update user name: %w", err)
	}

	var age sql.NullInt64
	if profile.Age != nil {
		age = sql.NullInt64{Int64: int64(*profile.Age), Valid: true}
	}
	var locality sql.NullString
	if profile.Locality != nil {
		locality = sql.NullString{String: *profile.Locality, Valid: true}
	}

	saved, err := scanProfile(tx.QueryRowContext(ctx, `
		INSERT INTO profiles (user_id, age, locality, personal_notes, goals, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET age = EXCLUDED.age,
		    locality = EXCLUDED.locality,
		    personal_notes = EXCLUDED.personal_notes,
		    goals = EXCLUDED.goals,
		    updated_at = NOW()
		RETURNING user_id, age, locality, COALESCE(personal_notes, ''), COALESCE(goals, ''), updated_at`,
		userID, age, locality, profile.PersonalNotes, profile.Goals,
	))
	if err != nil {
		return models.User{}, models.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return models.User{}, models.Profile{}, fmt.Errorf("commit profile transaction: %w", err)
	}
	return user, saved, nil
}

// ListProfiles returns every account with its profile, newest accounts first.
func (s *Store) ListProfiles(ctx context.Context) ([]models.ProfileEntry, error) {
	const query = `
		SELECT u.id, u.name, u.email, u.role,
		       p.age, p.locality, COALESCE(p.personal_notes, ''), COALESCE(p.goals, ''), p.updated_at
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		ORDER BY u.created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	entries := make([]models.ProfileEntry, 0)
	for rows.Next() {
		var (
			e         models.ProfileEntry
			age       sql.NullInt64
			locality  sql.NullString
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&e.UserID, &e.Name, &e.Email, &e.Role, &age, &locality, &e.PersonalNotes, &e.Goals, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		e.Age = intPtr(age)
		e.Locality = stringPtr(locality)
		if updatedAt.Valid {
			t := updatedAt.Time
			e.UpdatedAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return entries, nil
}

func scanProfile(row *sql.Row) (models.Profile, error) {
	var (
		p         models.Profile
		age       sql.NullInt64
		locality  sql.NullString
		updatedAt sql.NullTime
	)
	if err := row.Scan(&p.UserID, &age, &locality, &p.PersonalNotes, &p.Goals, &updatedAt); err != nil {
		return models.Profile{}, err
	}
	p.Age = intPtr(age)
	p.Locality = stringPtr(locality)
	if updatedAt.Valid {
		t := updatedAt.Time
		p.UpdatedAt = &t
	}
	return p, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
