package types

import "time"

// Friend request states.
const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
	FriendDeclined = "declined"
)

// FriendRequest links two users. A single row covers the whole
// relationship lifecycle; an accepted row means the users are friends.
type FriendRequest struct {
	ID         int       `json:"request_id" db:"id"`
	FromUserID int       `json:"-" db:"from_user_id"`
	ToUserID   int       `json:"-" db:"to_user_id"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// FriendEntry is a row in a friends or incoming-requests listing.
type FriendEntry struct {
	RequestID    int       `json:"request_id,omitempty"`
	UserID       int       `json:"id"`
	Username     string    `json:"username"`
	FavoriteGame string    `json:"favorite_game"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}
