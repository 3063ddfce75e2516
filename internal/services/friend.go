package services

import (
	"context"
	"errors"

	"github.com/frikords/apiserver/internal/sanitize"
	"github.com/frikords/apiserver/internal/store"
	"github.com/frikords/apiserver/types"
)

// FriendRepository is the persistence contract for friendships.
type FriendRepository interface {
	AreFriends(ctx context.Context, a, b int) (bool, error)
	ListFriends(ctx context.Context, userID int) ([]types.FriendEntry, error)
	ListIncoming(ctx context.Context, userID int) ([]types.FriendEntry, error)
	GetBetween(ctx context.Context, a, b int) (types.FriendRequest, error)
	Create(ctx context.Context, fromID, toID int) error
	Reopen(ctx context.Context, requestID, fromID, toID int) error
	Accept(ctx context.Context, requestID, toUserID int) error
	Decline(ctx context.Context, requestID, toUserID int) error
}

// UserDirectory resolves friend-request targets by id or display name.
type UserDirectory interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
}

// FriendService covers the friend list and the request lifecycle.
type FriendService struct {
	friends FriendRepository
	users   UserDirectory
}

func NewFriendService(friends FriendRepository, users UserDirectory) *FriendService {
	return &FriendService{friends: friends, users: users}
}

// List returns the caller's accepted friends.
func (s *FriendService) List(ctx context.Context, caller types.Identity) ([]types.FriendEntry, error) {
	friends, err := s.friends.ListFriends(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if friends == nil {
		friends = []types.FriendEntry{}
	}
	return friends, nil
}

// Requests returns the pending requests waiting on the caller.
func (s *FriendService) Requests(ctx context.Context, caller types.Identity) ([]types.FriendEntry, error) {
	reqs, err := s.friends.ListIncoming(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []types.FriendEntry{}
	}
	return reqs, nil
}

// Send creates a pending request towards another user, addressed by
// username or by id. Self-adds and duplicate live relationships are
// rejected; a declined one may be retried by sending again.
func (s *FriendService) Send(ctx context.Context, caller types.Identity, toUserID int, toUsername string) error {
	target, err := s.lookupTarget(ctx, toUserID, toUsername)
	if err != nil {
		return err
	}
	toUserID = target.ID
	if toUserID == caller.UserID {
		return Invalid("you cannot add yourself")
	}

	existing, err := s.friends.GetBetween(ctx, caller.UserID, toUserID)
	switch {
	case err == nil:
		switch existing.Status {
		case types.FriendAccepted:
			return Conflict("you are already friends")
		case types.FriendPending:
			return Conflict("request already pending")
		default:
			return s.friends.Reopen(ctx, existing.ID, caller.UserID, toUserID)
		}
	case errors.Is(err, store.ErrNotFound):
		return s.friends.Create(ctx, caller.UserID, toUserID)
	default:
		return err
	}
}

// lookupTarget resolves the addressee, username taking precedence.
// Banned accounts look like they do not exist.
func (s *FriendService) lookupTarget(ctx context.Context, userID int, username string) (types.User, error) {
	username = sanitize.Clean(username)
	var target types.User
	var err error
	switch {
	case username != "":
		target, err = s.users.GetByUsername(ctx, username)
	case userID > 0:
		target, err = s.users.GetByID(ctx, userID)
	default:
		return types.User{}, Invalid("username or user_id is required")
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, NotFound("user not found")
		}
		return types.User{}, err
	}
	if target.IsBanned {
		return types.User{}, NotFound("user not found")
	}
	return target, nil
}

// Accept confirms a pending request addressed to the caller.
func (s *FriendService) Accept(ctx context.Context, caller types.Identity, requestID int) error {
	if requestID <= 0 {
		return Invalid("request_id is required")
	}
	return s.friends.Accept(ctx, requestID, caller.UserID)
}

// Decline turns down a pending request addressed to the caller.
func (s *FriendService) Decline(ctx context.Context, caller types.Identity, requestID int) error {
	if requestID <= 0 {
		return Invalid("request_id is required")
	}
	return s.friends.Decline(ctx, requestID, caller.UserID)
}
