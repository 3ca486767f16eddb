package storage

import (
	"context"
	"errors"

	"github.com/mindmatters/mindmatters-api/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures account persistence. Email uniqueness is enforced here;
// CreateUser returns ErrAlreadyExists when the constraint fires.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}

// ResetTokenStore persists password reset tokens.
type ResetTokenStore interface {
	UpsertResetToken(ctx context.Context, token models.ResetToken) error
	FindResetToken(ctx context.Context, token string) (models.ResetToken, error)
	// ConsumeResetToken deletes the token if it has not expired at nowMillis
	// and sets the owner's password hash, atomically. It returns ErrNotFound
	// when no live token matches.
	ConsumeResetToken(ctx context.Context, token string, nowMillis int64, passwordHash string) error
	DeleteExpiredResetTokens(ctx context.Context, nowMillis int64) (int64, error)
}

// SignInStore appends and lists login audit rows.
type SignInStore interface {
	RecordSignIn(ctx context.Context, signIn models.SignIn) error
	ListSignIns(ctx context.Context) ([]models.SignInEntry, error)
}

// ProfileStore manages the per-account profile.
type ProfileStore interface {
	FindProfile(ctx context.Context, userID int64) (models.Profile, error)
	// UpdateProfile renames the account and upserts its profile in one step.
	UpdateProfile(ctx context.Context, userID int64, name string, profile models.Profile) (models.User, models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.ProfileEntry, error)
}

// Store is the full persistence surface the service runs against.
type Store interface {
	UserStore
	ResetTokenStore
	SignInStore
	ProfileStore
	Ping(ctx context.Context) error
	Close() error
}
