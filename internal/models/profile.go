package models

import "time"

// Profile holds the optional personal details a user keeps next to the account.
type Profile struct {
	UserID        int64      `json:"-"`
	Age           *int       `json:"age"`
	Locality      *string    `json:"locality"`
	PersonalNotes string     `json:"personalNotes"`
	Goals         string     `json:"goals"`
	UpdatedAt     *time.Time `json:"-"`
}

// ProfileEntry is an account left-joined with its profile, as listed to admins.
type ProfileEntry struct {
	UserID        int64      `json:"user_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Age           *int       `json:"age"`
	Locality      *string    `json:"locality"`
	PersonalNotes string     `json:"personalNotes"`
	Goals         string     `json:"goals"`
	UpdatedAt     *time.Time `json:"updated_at"`
}
