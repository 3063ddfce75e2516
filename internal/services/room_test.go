package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/frikords/apiserver/internal/store"
	"github.com/frikords/apiserver/types"
)

type fakeRoomRepo struct {
	rooms   map[int]types.Room
	members map[int][]int
	invites map[string]types.Invite
	uses    map[string]int
	nextID  int
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{
		rooms:   map[int]types.Room{},
		members: map[int][]int{},
		invites: map[string]types.Invite{},
		uses:    map[string]int{},
	}
}

func (f *fakeRoomRepo) ListPublic(context.Context, int) ([]types.Room, error) { return nil, nil }
func (f *fakeRoomRepo) ListForMember(context.Context, int, int) ([]types.Room, error) {
	return nil, nil
}

func (f *fakeRoomRepo) Create(_ context.Context, room types.Room) (types.Room, error) {
	f.nextID++
	room.ID = f.nextID
	f.rooms[room.ID] = room
	f.members[room.ID] = []int{room.OwnerID}
	return room, nil
}

func (f *fakeRoomRepo) OwnerID(_ context.Context, roomID int) (int, error) {
	room, ok := f.rooms[roomID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return room.OwnerID, nil
}

func (f *fakeRoomRepo) IsMember(_ context.Context, roomID, userID int) (bool, error) {
	for _, id := range f.members[roomID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRoomRepo) AddMember(_ context.Context, roomID, userID int) (bool, error) {
	member, _ := f.IsMember(context.Background(), roomID, userID)
	if member {
		return false, nil
	}
	f.members[roomID] = append(f.members[roomID], userID)
	return true, nil
}

func (f *fakeRoomRepo) CreateInvite(_ context.Context, code string, roomID, createdBy int) error {
	f.invites[code] = types.Invite{Code: code, RoomID: roomID, CreatedBy: createdBy, RoomName: f.rooms[roomID].Name}
	return nil
}

func (f *fakeRoomRepo) GetInvite(_ context.Context, code string) (types.Invite, error) {
	inv, ok := f.invites[code]
	if !ok {
		return types.Invite{}, store.ErrNotFound
	}
	inv.Uses = f.uses[code]
	return inv, nil
}

func (f *fakeRoomRepo) IncrementInviteUses(_ context.Context, code string) error {
	f.uses[code]++
	return nil
}

type stubFriends struct {
	pairs map[[2]int]bool
}

func (s stubFriends) AreFriends(_ context.Context, a, b int) (bool, error) {
	return s.pairs[[2]int{a, b}] || s.pairs[[2]int{b, a}], nil
}

func TestCreateRoomMintsInvite(t *testing.T) {
	repo := newFakeRoomRepo()
	svc := NewRoomService(repo, stubFriends{}, nil)
	owner := types.Identity{UserID: 1, Username: "kira"}

	room, code, err := svc.Create(context.Background(), owner, "  raid <b>night</b>  ", "", false)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if room.Name != "raid night" {
		t.Fatalf("name not sanitized: %q", room.Name)
	}
	if code == "" {
		t.Fatalf("expected an invite code")
	}
	if _, ok := repo.invites[code]; !ok {
		t.Fatalf("invite code not persisted")
	}

	if _, _, err := svc.Create(context.Background(), owner, "x", "", false); apiStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for a one-character name")
	}
}

func TestJoinLifecycle(t *testing.T) {
	repo := newFakeRoomRepo()
	svc := NewRoomService(repo, stubFriends{}, nil)
	ctx := context.Background()
	owner := types.Identity{UserID: 1, Username: "kira"}
	guest := types.Identity{UserID: 2}

	_, code, err := svc.Create(ctx, owner, "lobby", "", false)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := svc.Join(ctx, guest, "nope"); apiStatus(t, err) != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown code")
	}

	result, err := svc.Join(ctx, guest, code)
	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if result.AlreadyMember || result.RoomName != "lobby" {
		t.Fatalf("unexpected join result: %+v", result)
	}

	again, err := svc.Join(ctx, guest, code)
	if err != nil {
		t.Fatalf("rejoin error: %v", err)
	}
	if !again.AlreadyMember {
		t.Fatalf("rejoin should report already_member")
	}
	if repo.uses[code] != 1 {
		t.Fatalf("rejoin must not consume an invite use, got %d", repo.uses[code])
	}
}

func TestJoinExhaustedAndExpired(t *testing.T) {
	repo := newFakeRoomRepo()
	svc := NewRoomService(repo, stubFriends{}, nil)
	ctx := context.Background()

	repo.rooms[1] = types.Room{ID: 1, Name: "full", OwnerID: 1}
	repo.invites["used-up"] = types.Invite{Code: "used-up", RoomID: 1, MaxUses: 2, RoomName: "full"}
	repo.uses["used-up"] = 2
	repo.invites["stale"] = types.Invite{Code: "stale", RoomID: 1, ExpiresAt: time.Now().Add(-time.Hour), RoomName: "full"}

	if _, err := svc.Join(ctx, types.Identity{UserID: 5}, "used-up"); apiStatus(t, err) != http.StatusGone {
		t.Fatalf("expected 410 for an exhausted code")
	}
	if _, err := svc.Join(ctx, types.Identity{UserID: 5}, "stale"); apiStatus(t, err) != http.StatusGone {
		t.Fatalf("expected 410 for an expired code")
	}
}

func TestInviteOwnerOrAdminOnly(t *testing.T) {
	repo := newFakeRoomRepo()
	svc := NewRoomService(repo, stubFriends{}, nil)
	ctx := context.Background()

	if _, _, err := svc.Create(ctx, types.Identity{UserID: 1, Username: "kira"}, "lobby", "", false); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := svc.Invite(ctx, types.Identity{UserID: 2}, 1); apiStatus(t, err) != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-owner")
	}
	if _, err := svc.Invite(ctx, types.Identity{UserID: 2, IsAdmin: true}, 1); err != nil {
		t.Fatalf("admin invite failed: %v", err)
	}
	if _, err := svc.Invite(ctx, types.Identity{UserID: 1}, 1); err != nil {
		t.Fatalf("owner invite failed: %v", err)
	}
}

func TestInviteFriendRequiresFriendship(t *testing.T) {
	repo := newFakeRoomRepo()
	friends := stubFriends{pairs: map[[2]int]bool{{1, 2}: true}}
	svc := NewRoomService(repo, friends, nil)
	ctx := context.Background()
	owner := types.Identity{UserID: 1, Username: "kira"}

	if _, _, err := svc.Create(ctx, owner, "lobby", "", false); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := svc.InviteFriend(ctx, owner, 1, 3); apiStatus(t, err) != http.StatusForbidden {
		t.Fatalf("expected 403 when the target is not a friend")
	}

	already, err := svc.InviteFriend(ctx, owner, 1, 2)
	if err != nil {
		t.Fatalf("InviteFriend() error: %v", err)
	}
	if already {
		t.Fatalf("first add should not report already_member")
	}

	already, err = svc.InviteFriend(ctx, owner, 1, 2)
	if err != nil {
		t.Fatalf("repeat InviteFriend() error: %v", err)
	}
	if !already {
		t.Fatalf("repeat add should report already_member")
	}
}
