package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/frikords/apiserver/internal/sanitize"
	"github.com/frikords/apiserver/types"
)

const roomListLimit = 50

// RoomRepository is the persistence contract for rooms and invites.
type RoomRepository interface {
	ListPublic(ctx context.Context, limit int) ([]types.Room, error)
	ListForMember(ctx context.Context, userID, limit int) ([]types.Room, error)
	Create(ctx context.Context, room types.Room) (types.Room, error)
	OwnerID(ctx context.Context, roomID int) (int, error)
	IsMember(ctx context.Context, roomID, userID int) (bool, error)
	AddMember(ctx context.Context, roomID, userID int) (bool, error)
	CreateInvite(ctx context.Context, code string, roomID, createdBy int) error
	GetInvite(ctx context.Context, code string) (types.Invite, error)
	IncrementInviteUses(ctx context.Context, code string) error
}

// FriendshipCheck answers whether two users are accepted friends.
type FriendshipCheck interface {
	AreFriends(ctx context.Context, a, b int) (bool, error)
}

// RoomService covers room listing, creation and the invite flows.
type RoomService struct {
	rooms   RoomRepository
	friends FriendshipCheck
	audit   *AuditService
}

func NewRoomService(rooms RoomRepository, friends FriendshipCheck, audit *AuditService) *RoomService {
	return &RoomService{rooms: rooms, friends: friends, audit: audit}
}

// List returns public rooms for anonymous callers and the caller's own
// rooms otherwise.
func (s *RoomService) List(ctx context.Context, viewer *types.Identity) ([]types.Room, error) {
	var rooms []types.Room
	var err error
	if viewer == nil {
		rooms, err = s.rooms.ListPublic(ctx, roomListLimit)
	} else {
		rooms, err = s.rooms.ListForMember(ctx, viewer.UserID, roomListLimit)
	}
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []types.Room{}
	}
	return rooms, nil
}

// Create makes a room owned by the caller and mints its first invite code.
func (s *RoomService) Create(ctx context.Context, owner types.Identity, name, description string, isPublic bool) (types.Room, string, error) {
	name = sanitize.Clean(name)
	if n := len([]rune(name)); n < 2 || n > 32 {
		return types.Room{}, "", Invalid("room name must be 2-32 characters")
	}
	description = sanitize.Clean(description)

	room, err := s.rooms.Create(ctx, types.Room{
		Name:        name,
		Description: description,
		OwnerID:     owner.UserID,
		IsPublic:    isPublic,
	})
	if err != nil {
		return types.Room{}, "", err
	}
	room.OwnerName = owner.Username
	room.MemberCount = 1

	code, err := s.mintInvite(ctx, room.ID, owner.UserID)
	if err != nil {
		return types.Room{}, "", err
	}

	s.audit.Record(ctx, types.AuditInfo, "rooms", "room_created", room.Name, "", owner.UserID)
	return room, code, nil
}

// JoinResult tells the caller which room an invite admitted them to.
type JoinResult struct {
	RoomID        int    `json:"room_id"`
	RoomName      string `json:"room_name"`
	AlreadyMember bool   `json:"already_member"`
}

// Join redeems an invite code. Unknown codes are not found; exhausted or
// expired ones are gone. Rejoining is reported, not rejected.
func (s *RoomService) Join(ctx context.Context, caller types.Identity, code string) (JoinResult, error) {
	if code == "" {
		return JoinResult{}, Invalid("invite code is required")
	}
	inv, err := s.rooms.GetInvite(ctx, code)
	if err != nil {
		return JoinResult{}, err
	}
	if inv.MaxUses > 0 && inv.Uses >= inv.MaxUses {
		return JoinResult{}, Gone("invite code exhausted")
	}
	if !inv.ExpiresAt.IsZero() && time.Now().After(inv.ExpiresAt) {
		return JoinResult{}, Gone("invite code expired")
	}

	added, err := s.rooms.AddMember(ctx, inv.RoomID, caller.UserID)
	if err != nil {
		return JoinResult{}, err
	}
	if added {
		if err := s.rooms.IncrementInviteUses(ctx, code); err != nil {
			return JoinResult{}, err
		}
	}
	return JoinResult{RoomID: inv.RoomID, RoomName: inv.RoomName, AlreadyMember: !added}, nil
}

// Invite mints an extra invite code; owner or admin only.
func (s *RoomService) Invite(ctx context.Context, caller types.Identity, roomID int) (string, error) {
	if roomID <= 0 {
		return "", Invalid("room_id is required")
	}
	ownerID, err := s.rooms.OwnerID(ctx, roomID)
	if err != nil {
		return "", err
	}
	if ownerID != caller.UserID && !caller.IsAdmin {
		return "", Forbidden("only the room owner can create invites")
	}
	return s.mintInvite(ctx, roomID, caller.UserID)
}

// InviteFriend adds an accepted friend straight into a room the caller
// belongs to. Adding twice is a no-op.
func (s *RoomService) InviteFriend(ctx context.Context, caller types.Identity, roomID, friendID int) (alreadyMember bool, err error) {
	if roomID <= 0 || friendID <= 0 {
		return false, Invalid("room_id and friend_id are required")
	}
	member, err := s.rooms.IsMember(ctx, roomID, caller.UserID)
	if err != nil {
		return false, err
	}
	if !member {
		return false, Forbidden("you are not a member of this room")
	}
	friends, err := s.friends.AreFriends(ctx, caller.UserID, friendID)
	if err != nil {
		return false, err
	}
	if !friends {
		return false, Forbidden("you can only invite friends")
	}
	added, err := s.rooms.AddMember(ctx, roomID, friendID)
	if err != nil {
		return false, err
	}
	return !added, nil
}

func (s *RoomService) mintInvite(ctx context.Context, roomID, createdBy int) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := base64.RawURLEncoding.EncodeToString(buf)
	if err := s.rooms.CreateInvite(ctx, code, roomID, createdBy); err != nil {
		return "", err
	}
	return code, nil
}
