// Package memory is an in-process implementation of storage.Store. It keeps
// the same uniqueness and consume-once guarantees as the Postgres store and
// backs unit tests of everything above the storage layer.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mindmatters/mindmatters-api/internal/models"
	"github.com/mindmatters/mindmatters-api/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu       sync.Mutex
	nextUser int64
	nextSign int64
	users    map[int64]models.User
	byEmail  map[string]int64
	resets   map[string]models.ResetToken
	signins  []models.SignIn
	profiles map[int64]models.Profile
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[int64]models.User),
		byEmail:  make(map[string]int64),
		resets:   make(map[string]models.ResetToken),
		profiles: make(map[int64]models.Profile),
		now:      time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.nextUser++
	user.ID = s.nextUser
	user.CreatedAt = s.now()
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) UpsertResetToken(_ context.Context, token models.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.resets[token.Token]; ok {
		token.CreatedAt = existing.CreatedAt
	} else {
		token.CreatedAt = s.now()
	}
	s.resets[token.Token] = token
	return nil
}

func (s *Store) FindResetToken(_ context.Context, token string) (models.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.resets[token]
	if !ok {
		return models.ResetToken{}, storage.ErrNotFound
	}
	return rt, nil
}

func (s *Store) ConsumeResetToken(_ context.Context, token string, nowMillis int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.resets[token]
	if !ok || rt.Expired(nowMillis) {
		return storage.ErrNotFound
	}
	user, ok := s.users[rt.UserID]
	if !ok {
		return storage.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.users[user.ID] = user
	delete(s.resets, token)
	return nil
}

func (s *Store) DeleteExpiredResetTokens(_ context.Context, nowMillis int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, rt := range s.resets {
		if rt.Expired(nowMillis) {
			delete(s.resets, key)
			n++
		}
	}
	return n, nil
}

// ResetTokensFor lists the stored tokens owned by userID.
func (s *Store) ResetTokensFor(userID int64) []models.ResetToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.ResetToken
	for _, rt := range s.resets {
		if rt.UserID == userID {
			out = append(out, rt)
		}
	}
	return out
}

func (s *Store) RecordSignIn(_ context.Context, signIn models.SignIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSign++
	signIn.ID = s.nextSign
	signIn.CreatedAt = s.now()
	s.signins = append(s.signins, signIn)
	return nil
}

func (s *Store) ListSignIns(context.Context) ([]models.SignInEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]models.SignInEntry, 0, len(s.signins))
	for i := len(s.signins) - 1; i >= 0; i-- {
		si := s.signins[i]
		user := s.users[si.UserID]
		entries = append(entries, models.SignInEntry{
			ID:         si.ID,
			SignedInAt: si.CreatedAt,
			IP:         optional(si.IP),
			UserAgent:  optional(si.UserAgent),
			UserID:     user.ID,
			Name:       user.Name,
			Email:      user.Email,
			Role:       user.Role,
		})
	}
	return entries, nil
}

func (s *Store) FindProfile(_ context.Context, userID int64) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, userID int64, name string, profile models.Profile) (models.User, models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return models.User{}, models.Profile{}, storage.ErrNotFound
	}
	user.Name = name
	s.users[userID] = user

	now := s.now()
	profile.UserID = userID
	profile.UpdatedAt = &now
	s.profiles[userID] = profile
	return user, profile, nil
}

func (s *Store) ListProfiles(context.Context) ([]models.ProfileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]models.ProfileEntry, 0, len(s.users))
	for _, u := range s.users {
		e := models.ProfileEntry{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
		if p, ok := s.profiles[u.ID]; ok {
			e.Age = p.Age
			e.Locality = p.Locality
			e.PersonalNotes = p.PersonalNotes
			e.Goals = p.Goals
			e.UpdatedAt = p.UpdatedAt
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID > entries[j].UserID })
	return entries, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
