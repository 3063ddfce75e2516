package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/frikords/apiserver/internal/sanitize"
	"github.com/frikords/apiserver/internal/store"
	"github.com/frikords/apiserver/types"
)

const (
	adminListLimit     = 200
	adminMessagesLimit = 50
)

// AdminUserRepository is the slice of user persistence the admin console
// needs.
type AdminUserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	Search(ctx context.Context, q string, limit, offset int) ([]types.User, error)
	SetBanned(ctx context.Context, id int, banned bool) error
	UpdateBadge(ctx context.Context, id int, badge string) error
	CountUsers(ctx context.Context) (total, banned, new24h int, err error)
}

// AdminMessageRepository is the moderation slice of message persistence.
type AdminMessageRepository interface {
	AdminListChannel(ctx context.Context, channel string, limit int) ([]types.Message, error)
	AdminListRoom(ctx context.Context, roomID, limit int) ([]types.Message, error)
	MarkRemoved(ctx context.Context, messageID int) (int64, error)
	ClearChannel(ctx context.Context, channel string) (int64, error)
	ClearRoom(ctx context.Context, roomID int) (int64, error)
	CountMessages(ctx context.Context) (total, last24h int, err error)
}

// AdminRoomRepository counts rooms for the stats snapshot.
type AdminRoomRepository interface {
	CountRooms(ctx context.Context) (int, error)
}

// AdminAuditRepository reads the log tail and recent-entry counters.
type AdminAuditRepository interface {
	Tail(ctx context.Context, level string, limit int) ([]types.AuditEntry, error)
	CountRecent(ctx context.Context) (int, error)
}

// AdminService backs the admin console actions.
type AdminService struct {
	users    AdminUserRepository
	messages AdminMessageRepository
	rooms    AdminRoomRepository
	logs     AdminAuditRepository
	audit    *AuditService
}

func NewAdminService(
	users AdminUserRepository,
	messages AdminMessageRepository,
	rooms AdminRoomRepository,
	logs AdminAuditRepository,
	audit *AuditService,
) *AdminService {
	return &AdminService{users: users, messages: messages, rooms: rooms, logs: logs, audit: audit}
}

// Stats assembles the aggregate snapshot.
func (s *AdminService) Stats(ctx context.Context) (types.AdminStats, error) {
	var stats types.AdminStats
	var err error
	if stats.TotalUsers, stats.BannedUsers, stats.NewUsers24h, err = s.users.CountUsers(ctx); err != nil {
		return types.AdminStats{}, err
	}
	if stats.TotalMessages, stats.Messages24h, err = s.messages.CountMessages(ctx); err != nil {
		return types.AdminStats{}, err
	}
	if stats.TotalRooms, err = s.rooms.CountRooms(ctx); err != nil {
		return types.AdminStats{}, err
	}
	if stats.Errors24h, err = s.logs.CountRecent(ctx); err != nil {
		return types.AdminStats{}, err
	}
	return stats, nil
}

// Logs returns the audit log tail, optionally filtered by level.
func (s *AdminService) Logs(ctx context.Context, level string, limit int) ([]types.AuditEntry, error) {
	switch level {
	case "", types.AuditInfo, types.AuditWarn, types.AuditErr:
	default:
		return nil, Invalid("unknown log level")
	}
	if limit <= 0 || limit > adminListLimit {
		limit = adminListLimit
	}
	entries, err := s.logs.Tail(ctx, level, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []types.AuditEntry{}
	}
	return entries, nil
}

// Users searches the user list for the console.
func (s *AdminService) Users(ctx context.Context, q string, limit, offset int) ([]types.User, error) {
	if limit <= 0 || limit > adminListLimit {
		limit = adminListLimit
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.Search(ctx, sanitize.Clean(q), limit, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []types.User{}
	}
	return users, nil
}

// Messages returns the newest messages of a channel or room, removed ones
// included.
func (s *AdminService) Messages(ctx context.Context, channel string, roomID, limit int) ([]types.Message, error) {
	if limit <= 0 {
		limit = adminMessagesLimit
	}
	if limit > adminListLimit {
		limit = adminListLimit
	}
	var msgs []types.Message
	var err error
	if roomID > 0 {
		msgs, err = s.messages.AdminListRoom(ctx, roomID, limit)
	} else {
		msgs, err = s.messages.AdminListChannel(ctx, NormalizeChannel(channel), limit)
	}
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []types.Message{}
	}
	return msgs, nil
}

// Ban sets or lifts a user's ban. Admins cannot be banned. Banning
// revokes every session of the target in the same transaction.
func (s *AdminService) Ban(ctx context.Context, caller types.Identity, targetID int, banned bool) error {
	if targetID <= 0 {
		return Invalid("user_id is required")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("user not found")
		}
		return err
	}
	if target.IsAdmin {
		return Forbidden("admins cannot be banned")
	}
	if err := s.users.SetBanned(ctx, targetID, banned); err != nil {
		return err
	}

	action := "user_banned"
	if !banned {
		action = "user_unbanned"
	}
	s.audit.Record(ctx, types.AuditWarn, "admin", action, target.Username, "", caller.UserID)
	s.audit.Publish(ctx, EventChannelModeration, action, map[string]any{
		"target_id": targetID,
		"admin_id":  caller.UserID,
	})
	return nil
}

// Clear soft-deletes a single message, a whole room or a whole channel,
// in that order of precedence, and reports how many rows it touched.
func (s *AdminService) Clear(ctx context.Context, caller types.Identity, messageID, roomID int, channel string) (int64, error) {
	var cleared int64
	var scope string
	var err error
	switch {
	case messageID > 0:
		scope = fmt.Sprintf("message %d", messageID)
		cleared, err = s.messages.MarkRemoved(ctx, messageID)
	case roomID > 0:
		scope = fmt.Sprintf("room %d", roomID)
		cleared, err = s.messages.ClearRoom(ctx, roomID)
	case channel != "":
		// Destructive op: unknown channels are rejected, never
		// normalized to the default.
		if !ValidChannels[channel] {
			return 0, Invalid("unknown channel")
		}
		scope = "channel " + channel
		cleared, err = s.messages.ClearChannel(ctx, channel)
	default:
		return 0, Invalid("msg_id, room_id or channel is required")
	}
	if err != nil {
		return 0, err
	}

	s.audit.Record(ctx, types.AuditWarn, "admin", "messages_cleared",
		fmt.Sprintf("%s: %d removed", scope, cleared), "", caller.UserID)
	return cleared, nil
}

// SetBadge assigns or clears a user's profile badge.
func (s *AdminService) SetBadge(ctx context.Context, caller types.Identity, targetID int, badge string) error {
	if targetID <= 0 {
		return Invalid("user_id is required")
	}
	badge = sanitize.Clean(badge)
	if len([]rune(badge)) > maxBadgeLength {
		return Invalid(fmt.Sprintf("badge is limited to %d characters", maxBadgeLength))
	}
	if err := s.users.UpdateBadge(ctx, targetID, badge); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("user not found")
		}
		return err
	}
	s.audit.Record(ctx, types.AuditInfo, "admin", "badge_updated", badge, "", caller.UserID)
	return nil
}
