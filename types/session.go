package types

import "time"

// Session is an opaque bearer token bound to a user. A user may hold any
// number of concurrent sessions; banning the user deletes all of them.
type Session struct {
	Token     string    `json:"-" db:"token"`
	UserID    int       `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Identity is the authenticated caller resolved from a session token.
type Identity struct {
	UserID       int
	Username     string
	FavoriteGame string
	IsAdmin      bool
}
