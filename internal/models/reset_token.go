package models

import "time"

// ResetToken is a single-use credential authorizing one password change.
// ExpiresAt is an absolute deadline in Unix milliseconds.
type ResetToken struct {
	Token     string
	UserID    int64
	ExpiresAt int64
	CreatedAt time.Time
}

// Expired reports whether the token deadline lies strictly before nowMillis.
func (t ResetToken) Expired(nowMillis int64) bool {
	return t.ExpiresAt < nowMillis
}
