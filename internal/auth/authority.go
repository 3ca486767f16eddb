package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mindmatters/mindmatters-api/internal/mail"
	"github.com/mindmatters/mindmatters-api/internal/metrics"
	"github.com/mindmatters/mindmatters-api/internal/models"
	"github.com/mindmatters/mindmatters-api/internal/storage"
	"github.com/mindmatters/mindmatters-api/internal/validation"
)

const (
	minNameLen     = 2
	minPasswordLen = 8
)

// Action labels used for metrics and logs.
const (
	ActionSignup         = "signup"
	ActionLogin          = "login"
	ActionForgotPassword = "forgot-password"
	ActionResetPassword  = "reset-password"
)

// dummyPassword is compared against when no account matches a login so the
// unknown-email path costs one bcrypt comparison like the wrong-password path.
const dummyPassword = "mindmatters-timing-equaliser"

// Deps groups what the Authority needs. All fields are required.
type Deps struct {
	Users   storage.UserStore
	Resets  storage.ResetTokenStore
	SignIns storage.SignInStore
	Tokens  *TokenManager
	Hasher  PasswordHasher
	Mailer  mail.Mailer
	Metrics metrics.AuthRecorder
	Logger  *slog.Logger
	// AppURL is the public origin reset links point at.
	AppURL string
}

// Authority owns signup, login, and the password reset lifecycle.
type Authority struct {
	users     storage.UserStore
	resets    storage.ResetTokenStore
	signins   storage.SignInStore
	tokens    *TokenManager
	hasher    PasswordHasher
	mailer    mail.Mailer
	metrics   metrics.AuthRecorder
	logger    *slog.Logger
	appURL    string
	dummyHash string
	now       func() time.Time
}

// SignupInput is the payload of a signup request.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is the payload of a login request plus the caller's network details.
type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// Session is an issued token and the account it was issued for.
type Session struct {
	Token string
	User  models.User
}

// NewAuthority builds an Authority. It hashes the timing-equaliser password
// once, so construction costs one bcrypt round.
func NewAuthority(deps Deps) (*Authority, error) {
	dummy, err := deps.Hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Authority{
		users:     deps.Users,
		resets:    deps.Resets,
		signins:   deps.SignIns,
		tokens:    deps.Tokens,
		hasher:    deps.Hasher,
		mailer:    deps.Mailer,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		appURL:    deps.AppURL,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// Signup registers a new account with role user and returns a session for it.
func (a *Authority) Signup(ctx context.Context, in SignupInput) (Session, error) {
	// Names are stored trimmed, so the length rule applies to the trimmed text.
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)

	verr := validation.New()
	if !validation.MinLen(name, minNameLen) {
		verr.Field("name", fmt.Sprintf("must be at least %d characters", minNameLen))
	}
	if !validation.Email(email) {
		verr.Field("email", "must be a valid email address")
	}
	checkNewPassword(verr, "password", in.Password)
	if err := verr.Err(); err != nil {
		a.metrics.RecordAuthOutcome(ActionSignup, metrics.OutcomeInvalid)
		return Session{}, err
	}

	// Advisory only: the unique index on users.email is what actually
	// prevents duplicates.
	if _, err := a.users.FindByEmail(ctx, email); err == nil {
		a.metrics.RecordAuthOutcome(ActionSignup, metrics.OutcomeConflict)
		return Session{}, ErrConflict
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Session{}, a.fail(ActionSignup, "find user by email", err)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, a.fail(ActionSignup, "hash password", err)
	}

	user, err := a.users.CreateUser(ctx, models.User{
		Name:         name,
		Email:        email,
		Role:         models.RoleUser,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			a.metrics.RecordAuthOutcome(ActionSignup, metrics.OutcomeConflict)
			return Session{}, ErrConflict
		}
		return Session{}, a.fail(ActionSignup, "create user", err)
	}

	token, err := a.IssueSessionToken(user)
	if err != nil {
		return Session{}, a.fail(ActionSignup, "issue token", err)
	}

	a.metrics.RecordAuthOutcome(ActionSignup, metrics.OutcomeSuccess)
	a.logger.InfoContext(ctx, "account created", slog.Int64("user_id", user.ID))
	return Session{Token: token, User: user}, nil
}

// Login verifies credentials and returns a session. Unknown email and wrong
// password both yield ErrInvalidCredentials after one bcrypt comparison.
func (a *Authority) Login(ctx context.Context, in LoginInput) (Session, error) {
	email := strings.TrimSpace(in.Email)

	verr := validation.New()
	if !validation.Email(email) {
		verr.Field("email", "must be a valid email address")
	}
	if in.Password == "" {
		verr.Field("password", "is required")
	}
	if err := verr.Err(); err != nil {
		a.metrics.RecordAuthOutcome(ActionLogin, metrics.OutcomeInvalid)
		return Session{}, err
	}

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = a.hasher.Compare(a.dummyHash, in.Password)
			a.metrics.RecordAuthOutcome(ActionLogin, metrics.OutcomeBadCredentials)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, a.fail(ActionLogin, "find user by email", err)
	}

	if err := a.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, ErrPasswordMismatch) {
			a.logger.ErrorContext(ctx, "stored password hash unusable",
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		a.metrics.RecordAuthOutcome(ActionLogin, metrics.OutcomeBadCredentials)
		return Session{}, ErrInvalidCredentials
	}

	token, err := a.IssueSessionToken(user)
	if err != nil {
		return Session{}, a.fail(ActionLogin, "issue token", err)
	}

	err = a.signins.RecordSignIn(ctx, models.SignIn{UserID: user.ID, IP: in.IP, UserAgent: in.UserAgent})
	if err != nil {
		a.metrics.RecordAuthOutcome(ActionLogin, metrics.OutcomeSignInRecordFailed)
		a.logger.ErrorContext(ctx, "record sign-in failed",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	a.metrics.RecordAuthOutcome(ActionLogin, metrics.OutcomeSuccess)
	return Session{Token: token, User: user}, nil
}

// ForgotPassword issues a reset token and emails a link when the account
// exists. The result is the same whether or not it does.
func (a *Authority) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	verr := validation.New()
	if !validation.Email(email) {
		verr.Field("email", "must be a valid email address")
	}
	if err := verr.Err(); err != nil {
		a.metrics.RecordAuthOutcome(ActionForgotPassword, metrics.OutcomeInvalid)
		return err
	}

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.metrics.RecordAuthOutcome(ActionForgotPassword, metrics.OutcomeUnknownEmail)
			return nil
		}
		return a.fail(ActionForgotPassword, "find user by email", err)
	}

	token, err := newResetToken()
	if err != nil {
		return a.fail(ActionForgotPassword, "generate token", err)
	}
	err = a.resets.UpsertResetToken(ctx, models.ResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: a.now().Add(ResetTokenTTL).UnixMilli(),
	})
	if err != nil {
		return a.fail(ActionForgotPassword, "store reset token", err)
	}

	link := resetLink(a.appURL, token)
	err = a.mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: resetEmailSubject,
		HTML:    resetEmailBody(link),
	})
	if err != nil {
		a.metrics.RecordAuthOutcome(ActionForgotPassword, metrics.OutcomeMailHandoffFailed)
		a.logger.WarnContext(ctx, "reset email hand-off failed",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	a.metrics.RecordAuthOutcome(ActionForgotPassword, metrics.OutcomeSuccess)
	return nil
}

// ResetPassword consumes a live reset token and replaces the owner's password.
func (a *Authority) ResetPassword(ctx context.Context, token, newPassword string) error {
	verr := validation.New()
	if token == "" {
		verr.Field("token", "is required")
	}
	checkNewPassword(verr, "password", newPassword)
	if err := verr.Err(); err != nil {
		a.metrics.RecordAuthOutcome(ActionResetPassword, metrics.OutcomeInvalid)
		return err
	}

	nowMillis := a.now().UnixMilli()
	rt, err := a.resets.FindResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.metrics.RecordAuthOutcome(ActionResetPassword, metrics.OutcomeInvalidToken)
			return ErrInvalidToken
		}
		return a.fail(ActionResetPassword, "find reset token", err)
	}
	if rt.Expired(nowMillis) {
		a.metrics.RecordAuthOutcome(ActionResetPassword, metrics.OutcomeInvalidToken)
		return ErrInvalidToken
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return a.fail(ActionResetPassword, "hash password", err)
	}

	if err := a.resets.ConsumeResetToken(ctx, token, nowMillis, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.metrics.RecordAuthOutcome(ActionResetPassword, metrics.OutcomeInvalidToken)
			return ErrInvalidToken
		}
		return a.fail(ActionResetPassword, "consume reset token", err)
	}

	a.metrics.RecordAuthOutcome(ActionResetPassword, metrics.OutcomeSuccess)
	a.logger.InfoContext(ctx, "password reset", slog.Int64("user_id", rt.UserID))
	return nil
}

// IssueSessionToken signs a token for user.
func (a *Authority) IssueSessionToken(user models.User) (string, error) {
	return a.tokens.Generate(user)
}

// VerifySessionToken validates a bearer token and returns its claims.
func (a *Authority) VerifySessionToken(token string) (*Claims, error) {
	return a.tokens.Verify(token)
}

// EnsureAdmin creates an admin account unless one with email already exists.
func (a *Authority) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = strings.TrimSpace(email)
	if _, err := a.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	verr := validation.New()
	if !validation.Email(email) {
		verr.Field("email", "must be a valid email address")
	}
	checkNewPassword(verr, "password", password)
	if err := verr.Err(); err != nil {
		return err
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin"
	}
	_, err = a.users.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	})
	if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("create admin: %w", err)
	}
	a.logger.InfoContext(ctx, "admin account ensured", slog.String("email", email))
	return nil
}

func (a *Authority) fail(action, step string, err error) error {
	a.metrics.RecordAuthOutcome(action, metrics.OutcomeError)
	return fmt.Errorf("%s: %s: %w", action, step, err)
}

func checkNewPassword(verr *validation.Error, field, password string) {
	if !validation.MinLen(password, minPasswordLen) {
		verr.Field(field, fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if len(password) > MaxPasswordBytes {
		verr.Field(field, fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
}
