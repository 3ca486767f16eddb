package models

import "time"

// SignIn is an append-only audit row written on every successful login.
type SignIn struct {
	ID        int64
	UserID    int64
	IP        string
	UserAgent string
	CreatedAt time.Time
}

// SignInEntry is a sign-in joined with the owning account, as listed to admins.
type SignInEntry struct {
	ID         int64     `json:"id"`
	SignedInAt time.Time `json:"signed_in_at"`
	IP         *string   `json:"ip"`
	UserAgent  *string   `json:"user_agent"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
}
