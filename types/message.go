package types

import "time"

// Message is a post in a public channel or a private room. Exactly one of
// Channel / RoomID is set. Deleted messages stay as rows with IsRemoved set
// so the client can render a tombstone.
type Message struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"author_id" db:"user_id"`
	Channel   string    `json:"channel,omitempty" db:"channel"`
	RoomID    int       `json:"room_id,omitempty" db:"room_id"`
	Content   string    `json:"content" db:"content"`
	IsRemoved bool      `json:"is_removed" db:"is_removed"`
	Edited    bool      `json:"edited" db:"edited"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Author fields joined from users.
	Username     string `json:"username" db:"username"`
	FavoriteGame string `json:"favorite_game" db:"favorite_game"`
	AvatarURL    string `json:"avatar_url" db:"avatar_url"`
	Badge        string `json:"badge" db:"badge"`

	Reactions []ReactionGroup `json:"reactions"`
}

// ReactionGroup aggregates active reactions on a message by emoji.
type ReactionGroup struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
	Users []int  `json:"users"`
}

// DirectMessage is a private message between two friends.
type DirectMessage struct {
	ID         int       `json:"id" db:"id"`
	SenderID   int       `json:"-" db:"sender_id"`
	ReceiverID int       `json:"-" db:"receiver_id"`
	Content    string    `json:"content" db:"content"`
	IsRemoved  bool      `json:"is_removed" db:"is_removed"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Username is the sender's name, joined from users.
	Username string `json:"username" db:"username"`
}
