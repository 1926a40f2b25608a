package domain

import "time"

// Session binds an opaque token to a user id for its lifetime.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}
