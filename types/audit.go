package types

import "time"

// Audit levels.
const (
	AuditInfo = "info"
	AuditWarn = "warn"
	AuditErr  = "error"
)

// AuditEntry is an append-only security/error log record. Entries are
// written best-effort and never mutated.
type AuditEntry struct {
	ID        int       `json:"id" db:"id"`
	Level     string    `json:"level" db:"level"`
	Source    string    `json:"source" db:"source"`
	Message   string    `json:"message" db:"message"`
	Details   string    `json:"details" db:"details"`
	IP        string    `json:"ip" db:"ip"`
	UserID    int       `json:"user_id,omitempty" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AdminStats is the aggregate snapshot served by the admin console.
type AdminStats struct {
	TotalUsers    int `json:"total_users"`
	BannedUsers   int `json:"banned_users"`
	TotalMessages int `json:"total_messages"`
	TotalRooms    int `json:"total_rooms"`
	Errors24h     int `json:"errors_24h"`
	NewUsers24h   int `json:"new_users_24h"`
	Messages24h   int `json:"messages_24h"`
}
