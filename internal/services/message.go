package services

import (
	"context"
	"fmt"

	"github.com/frikords/apiserver/internal/sanitize"
	"github.com/frikords/apiserver/types"
)

const (
	// DefaultChannel is used whenever a request names no channel or an
	// unknown one.
	DefaultChannel = "general"

	maxMessageLength = 2000
	messageTailLimit = 100
)

// ValidChannels is the closed set of public channels.
var ValidChannels = map[string]bool{
	"general":   true,
	"meet":      true,
	"memes":     true,
	"teammates": true,
}

// ValidEmoji is the closed set of reaction emoji.
var ValidEmoji = map[string]bool{
	"👍": true, "❤️": true, "😂": true, "😮": true,
	"😢": true, "🔥": true, "👎": true, "🎮": true,
}

// NormalizeChannel maps unknown or empty channel names to the default.
func NormalizeChannel(channel string) string {
	if ValidChannels[channel] {
		return channel
	}
	return DefaultChannel
}

// MessageRepository is the persistence contract for channel/room posts.
type MessageRepository interface {
	ListChannel(ctx context.Context, channel string, limit int) ([]types.Message, error)
	ListRoom(ctx context.Context, roomID, limit int) ([]types.Message, error)
	CreateInChannel(ctx context.Context, userID int, channel, content string) (types.Message, error)
	CreateInRoom(ctx context.Context, userID, roomID int, content string) (types.Message, error)
	Author(ctx context.Context, messageID int, removedOK bool) (int, error)
	MarkRemoved(ctx context.Context, messageID int) (int64, error)
	UpdateContent(ctx context.Context, messageID int, content string) error
}

// ReactionRepository is the persistence contract for emoji reactions.
type ReactionRepository interface {
	Toggle(ctx context.Context, messageID, userID int, emoji string) (bool, error)
	Summary(ctx context.Context, messageID int, emoji string) (int, []int, error)
	ForMessages(ctx context.Context, messageIDs []int) (map[int][]types.ReactionGroup, error)
}

// RoomMembership is the slice of room persistence the message flow needs.
type RoomMembership interface {
	IsMember(ctx context.Context, roomID, userID int) (bool, error)
}

// Presence refreshes a user's last-seen marker.
type Presence interface {
	TouchLastSeen(ctx context.Context, id int) error
}

// ProfileLookup fetches a user record for response enrichment.
type ProfileLookup interface {
	GetByID(ctx context.Context, id int) (types.User, error)
}

// MessageService covers listing, posting, editing, deleting and reacting.
type MessageService struct {
	messages  MessageRepository
	reactions ReactionRepository
	rooms     RoomMembership
	users     interface {
		Presence
		ProfileLookup
	}
	audit *AuditService
}

func NewMessageService(
	messages MessageRepository,
	reactions ReactionRepository,
	rooms RoomMembership,
	users interface {
		Presence
		ProfileLookup
	},
	audit *AuditService,
) *MessageService {
	return &MessageService{
		messages:  messages,
		reactions: reactions,
		rooms:     rooms,
		users:     users,
		audit:     audit,
	}
}

// ListChannel returns the channel tail for any caller. A logged-in viewer
// has their presence refreshed.
func (s *MessageService) ListChannel(ctx context.Context, viewer *types.Identity, channel string) ([]types.Message, error) {
	channel = NormalizeChannel(channel)
	if viewer != nil {
		if err := s.users.TouchLastSeen(ctx, viewer.UserID); err != nil {
			return nil, err
		}
	}
	msgs, err := s.messages.ListChannel(ctx, channel, messageTailLimit)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, msgs)
}

// ListRoom returns the room tail; only members may read a room.
func (s *MessageService) ListRoom(ctx context.Context, viewer types.Identity, roomID int) ([]types.Message, error) {
	member, err := s.rooms.IsMember(ctx, roomID, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, Forbidden("you are not a member of this room")
	}
	if err := s.users.TouchLastSeen(ctx, viewer.UserID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListRoom(ctx, roomID, messageTailLimit)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, msgs)
}

// decorate blanks removed content and attaches reaction groups.
func (s *MessageService) decorate(ctx context.Context, msgs []types.Message) ([]types.Message, error) {
	ids := make([]int, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	reactions, err := s.reactions.ForMessages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].IsRemoved {
			msgs[i].Content = ""
		}
		groups := reactions[msgs[i].ID]
		if groups == nil {
			groups = []types.ReactionGroup{}
		}
		msgs[i].Reactions = groups
	}
	return msgs, nil
}

// Post sanitizes and stores a message in a channel, or in a room when
// roomID is non-zero (membership required). The stored message is echoed
// back with the author's profile fields filled in.
func (s *MessageService) Post(ctx context.Context, author types.Identity, channel string, roomID int, content string) (types.Message, error) {
	content = sanitize.Clean(content)
	if content == "" {
		return types.Message{}, Invalid("message is empty")
	}
	if len([]rune(content)) > maxMessageLength {
		return types.Message{}, Invalid(fmt.Sprintf("messages are limited to %d characters", maxMessageLength))
	}

	var msg types.Message
	var err error
	if roomID > 0 {
		member, merr := s.rooms.IsMember(ctx, roomID, author.UserID)
		if merr != nil {
			return types.Message{}, merr
		}
		if !member {
			return types.Message{}, Forbidden("you are not a member of this room")
		}
		msg, err = s.messages.CreateInRoom(ctx, author.UserID, roomID, content)
	} else {
		msg, err = s.messages.CreateInChannel(ctx, author.UserID, NormalizeChannel(channel), content)
	}
	if err != nil {
		return types.Message{}, err
	}

	profile, err := s.users.GetByID(ctx, author.UserID)
	if err != nil {
		return types.Message{}, err
	}
	msg.Username = author.Username
	msg.FavoriteGame = author.FavoriteGame
	msg.AvatarURL = profile.AvatarURL
	msg.Badge = profile.Badge
	msg.Reactions = []types.ReactionGroup{}

	s.audit.Publish(ctx, EventChannelMessages, "message_posted", msg)
	return msg, nil
}

// Delete soft-removes a message; allowed for the author or an admin.
func (s *MessageService) Delete(ctx context.Context, caller types.Identity, messageID int) error {
	if messageID <= 0 {
		return Invalid("msg_id is required")
	}
	authorID, err := s.messages.Author(ctx, messageID, true)
	if err != nil {
		return err
	}
	if authorID != caller.UserID && !caller.IsAdmin {
		return Forbidden("you cannot delete this message")
	}
	_, err = s.messages.MarkRemoved(ctx, messageID)
	return err
}

// Edit replaces a live message's content; authors only.
func (s *MessageService) Edit(ctx context.Context, caller types.Identity, messageID int, content string) (string, error) {
	if messageID <= 0 {
		return "", Invalid("msg_id is required")
	}
	content = sanitize.Clean(content)
	if content == "" {
		return "", Invalid("message is empty")
	}
	if len([]rune(content)) > maxMessageLength {
		return "", Invalid(fmt.Sprintf("messages are limited to %d characters", maxMessageLength))
	}
	authorID, err := s.messages.Author(ctx, messageID, false)
	if err != nil {
		return "", err
	}
	if authorID != caller.UserID {
		return "", Forbidden("you cannot edit this message")
	}
	if err := s.messages.UpdateContent(ctx, messageID, content); err != nil {
		return "", err
	}
	return content, nil
}

// ReactionResult reports the state of one emoji on a message after a
// toggle.
type ReactionResult struct {
	Added bool  `json:"added"`
	Count int   `json:"count"`
	Users []int `json:"users"`
}

// React toggles an allow-listed emoji reaction.
func (s *MessageService) React(ctx context.Context, caller types.Identity, messageID int, emoji string) (ReactionResult, error) {
	if !ValidEmoji[emoji] {
		return ReactionResult{}, Invalid("unsupported emoji")
	}
	if messageID <= 0 {
		return ReactionResult{}, Invalid("msg_id is required")
	}
	if _, err := s.messages.Author(ctx, messageID, false); err != nil {
		return ReactionResult{}, err
	}
	added, err := s.reactions.Toggle(ctx, messageID, caller.UserID, emoji)
	if err != nil {
		return ReactionResult{}, err
	}
	count, users, err := s.reactions.Summary(ctx, messageID, emoji)
	if err != nil {
		return ReactionResult{}, err
	}
	if users == nil {
		users = []int{}
	}
	return ReactionResult{Added: added, Count: count, Users: users}, nil
}
