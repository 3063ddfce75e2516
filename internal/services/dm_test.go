package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/frikords/apiserver/internal/store"
	"github.com/frikords/apiserver/types"
)

type fakeDMRepo struct {
	msgs    []types.DirectMessage
	removed []int
}

func (f *fakeDMRepo) ListConversation(_ context.Context, _, _, _ int) ([]types.DirectMessage, error) {
	return f.msgs, nil
}

func (f *fakeDMRepo) Create(_ context.Context, senderID, receiverID int, content string) (types.DirectMessage, error) {
	msg := types.DirectMessage{
		ID: len(f.msgs) + 1, SenderID: senderID, ReceiverID: receiverID, Content: content,
	}
	f.msgs = append(f.msgs, msg)
	return msg, nil
}

func (f *fakeDMRepo) SenderID(_ context.Context, messageID int) (int, error) {
	for _, m := range f.msgs {
		if m.ID == messageID {
			return m.SenderID, nil
		}
	}
	return 0, store.ErrNotFound
}

func (f *fakeDMRepo) MarkRemoved(_ context.Context, messageID int) error {
	f.removed = append(f.removed, messageID)
	return nil
}

func newTestDMService(dms *fakeDMRepo, friends *fakeFriendRepo, presence *fakePresence) *DirectMessageService {
	return NewDirectMessageService(dms, friends, presence)
}

func makeFriends(t *testing.T, friends *fakeFriendRepo, a, b int) {
	t.Helper()
	ctx := context.Background()
	if err := friends.Create(ctx, a, b); err != nil {
		t.Fatalf("create request: %v", err)
	}
	fr, err := friends.GetBetween(ctx, a, b)
	if err != nil {
		t.Fatalf("fetch request: %v", err)
	}
	if err := friends.Accept(ctx, fr.ID, b); err != nil {
		t.Fatalf("accept request: %v", err)
	}
}

func TestDMRequiresFriendship(t *testing.T) {
	svc := newTestDMService(&fakeDMRepo{}, newFakeFriendRepo(), &fakePresence{})
	ctx := context.Background()
	caller := types.Identity{UserID: 1, Username: "kira"}

	if _, err := svc.Send(ctx, caller, 2, "hey"); apiStatus(t, err) != http.StatusForbidden {
		t.Fatalf("expected 403 when sending to a non-friend")
	}
	if _, err := svc.Conversation(ctx, caller, 2); apiStatus(t, err) != http.StatusForbidden {
		t.Fatalf("expected 403 when reading a non-friend conversation")
	}
}

func TestConversationRefreshesPresence(t *testing.T) {
	friends := newFakeFriendRepo()
	makeFriends(t, friends, 1, 2)
	presence := &fakePresence{}
	svc := newTestDMService(&fakeDMRepo{}, friends, presence)

	if _, err := svc.Conversation(context.Background(), types.Identity{UserID: 2}, 1); err != nil {
		t.Fatalf("Conversation() error: %v", err)
	}
	if len(presence.touched) != 1 || presence.touched[0] != 2 {
		t.Fatalf("reading a conversation must refresh the caller's last_seen, touched %v", presence.touched)
	}
}

func TestDeleteDMSenderOnly(t *testing.T) {
	friends := newFakeFriendRepo()
	makeFriends(t, friends, 1, 2)
	dms := &fakeDMRepo{}
	svc := newTestDMService(dms, friends, &fakePresence{})
	ctx := context.Background()

	msg, err := svc.Send(ctx, types.Identity{UserID: 1, Username: "kira"}, 2, "gg")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	if err := svc.Delete(ctx, types.Identity{UserID: 2}, msg.ID); apiStatus(t, err) != http.StatusForbidden {
		t.Fatalf("the receiver must not be able to delete a dm")
	}
	if err := svc.Delete(ctx, types.Identity{UserID: 1}, msg.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(dms.removed) != 1 || dms.removed[0] != msg.ID {
		t.Fatalf("expected message %d removed, got %v", msg.ID, dms.removed)
	}
}
