package types

import "time"

// User represents an account in the system.
// It contains identity, profile, and moderation metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique display name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address, stored lower-cased and unique.
	Email string `json:"email" db:"email"`

	// FavoriteGame is a free-text profile field shown next to the username.
	FavoriteGame string `json:"favorite_game" db:"favorite_game"`

	// AvatarURL points at the user's avatar in the public object store.
	AvatarURL string `json:"avatar_url" db:"avatar_url"`

	// Badge is an admin-assigned tag displayed on messages.
	Badge string `json:"badge" db:"badge"`

	// IsAdmin grants access to the admin_* actions.
	IsAdmin bool `json:"is_admin" db:"is_admin"`

	// IsBanned blocks authentication entirely, whatever tokens exist.
	IsBanned bool `json:"is_banned" db:"is_banned"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// LastSeen is refreshed when the user reads or posts messages.
	LastSeen time.Time `json:"last_seen" db:"last_seen"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent account update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublicUser is the projection of a User safe to return to any caller.
type PublicUser struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	FavoriteGame string    `json:"favorite_game"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Badge        string    `json:"badge,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}

// Public strips a User down to the fields any caller may see.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		FavoriteGame: u.FavoriteGame,
		AvatarURL:    u.AvatarURL,
		Badge:        u.Badge,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
	}
}
