package services

import (
	"context"
	"fmt"

	"github.com/frikords/apiserver/internal/sanitize"
	"github.com/frikords/apiserver/types"
)

// DirectMessageRepository is the persistence contract for DMs.
type DirectMessageRepository interface {
	ListConversation(ctx context.Context, userID, otherID, limit int) ([]types.DirectMessage, error)
	Create(ctx context.Context, senderID, receiverID int, content string) (types.DirectMessage, error)
	SenderID(ctx context.Context, messageID int) (int, error)
	MarkRemoved(ctx context.Context, messageID int) error
}

// DirectMessageService covers private conversations between friends.
type DirectMessageService struct {
	dms      DirectMessageRepository
	friends  FriendshipCheck
	presence Presence
}

func NewDirectMessageService(dms DirectMessageRepository, friends FriendshipCheck, presence Presence) *DirectMessageService {
	return &DirectMessageService{dms: dms, friends: friends, presence: presence}
}

// Conversation returns the DM tail with a friend; removed messages come
// back blanked. Reading a conversation refreshes the caller's presence.
func (s *DirectMessageService) Conversation(ctx context.Context, caller types.Identity, otherID int) ([]types.DirectMessage, error) {
	if otherID <= 0 {
		return nil, Invalid("user_id is required")
	}
	friends, err := s.friends.AreFriends(ctx, caller.UserID, otherID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, Forbidden("you can only message friends")
	}
	if err := s.presence.TouchLastSeen(ctx, caller.UserID); err != nil {
		return nil, err
	}
	msgs, err := s.dms.ListConversation(ctx, caller.UserID, otherID, messageTailLimit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []types.DirectMessage{}
	}
	for i := range msgs {
		if msgs[i].IsRemoved {
			msgs[i].Content = ""
		}
	}
	return msgs, nil
}

// Send sanitizes and stores a DM; the receiver must be a friend.
func (s *DirectMessageService) Send(ctx context.Context, caller types.Identity, receiverID int, content string) (types.DirectMessage, error) {
	if receiverID <= 0 {
		return types.DirectMessage{}, Invalid("user_id is required")
	}
	content = sanitize.Clean(content)
	if content == "" {
		return types.DirectMessage{}, Invalid("message is empty")
	}
	if len([]rune(content)) > maxMessageLength {
		return types.DirectMessage{}, Invalid(fmt.Sprintf("messages are limited to %d characters", maxMessageLength))
	}
	friends, err := s.friends.AreFriends(ctx, caller.UserID, receiverID)
	if err != nil {
		return types.DirectMessage{}, err
	}
	if !friends {
		return types.DirectMessage{}, Forbidden("you can only message friends")
	}
	msg, err := s.dms.Create(ctx, caller.UserID, receiverID, content)
	if err != nil {
		return types.DirectMessage{}, err
	}
	msg.Username = caller.Username
	return msg, nil
}

// Delete soft-removes a DM; sender only.
func (s *DirectMessageService) Delete(ctx context.Context, caller types.Identity, messageID int) error {
	if messageID <= 0 {
		return Invalid("msg_id is required")
	}
	senderID, err := s.dms.SenderID(ctx, messageID)
	if err != nil {
		return err
	}
	if senderID != caller.UserID {
		return Forbidden("you cannot delete this message")
	}
	return s.dms.MarkRemoved(ctx, messageID)
}
