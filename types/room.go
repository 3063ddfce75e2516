package types

import "time"

// Room is a user-created space with explicit membership.
type Room struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     int       `json:"-" db:"owner_id"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// OwnerName and MemberCount are joined for listings.
	OwnerName   string `json:"owner,omitempty"`
	MemberCount int    `json:"members"`
}

// Invite lets its holder join a room. MaxUses == 0 means unlimited and a
// zero ExpiresAt means no expiry.
type Invite struct {
	Code      string    `json:"code" db:"code"`
	RoomID    int       `json:"room_id" db:"room_id"`
	CreatedBy int       `json:"-" db:"created_by"`
	Uses      int       `json:"uses" db:"uses"`
	MaxUses   int       `json:"max_uses,omitempty" db:"max_uses"`
	ExpiresAt time.Time `json:"expires_at,omitempty" db:"expires_at"`
	RoomName  string    `json:"room_name,omitempty"`
}
