package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/frikords/apiserver/internal/store"
	"github.com/frikords/apiserver/types"
)

type fakeMessageRepo struct {
	channelMsgs []types.Message
	roomMsgs    []types.Message
	authors     map[int]int
	removedIDs  map[int]bool
	created     []types.Message
	edited      map[int]string
	markRemoved []int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		authors:    map[int]int{},
		removedIDs: map[int]bool{},
		edited:     map[int]string{},
	}
}

func (f *fakeMessageRepo) ListChannel(_ context.Context, _ string, _ int) ([]types.Message, error) {
	return f.channelMsgs, nil
}

func (f *fakeMessageRepo) ListRoom(_ context.Context, _, _ int) ([]types.Message, error) {
	return f.roomMsgs, nil
}

func (f *fakeMessageRepo) CreateInChannel(_ context.Context, userID int, channel, content string) (types.Message, error) {
	msg := types.Message{ID: len(f.created) + 1, UserID: userID, Channel: channel, Content: content}
	f.created = append(f.created, msg)
	return msg, nil
}

func (f *fakeMessageRepo) CreateInRoom(_ context.Context, userID, roomID int, content string) (types.Message, error) {
	msg := types.Message{ID: len(f.created) + 1, UserID: userID, RoomID: roomID, Content: content}
	f.created = append(f.created, msg)
	return msg, nil
}

func (f *fakeMessageRepo) Author(_ context.Context, messageID int, removedOK bool) (int, error) {
	author, ok := f.authors[messageID]
	if !ok {
		return 0, store.ErrNotFound
	}
	if f.removedIDs[messageID] && !removedOK {
		return 0, store.ErrNotFound
	}
	return author, nil
}

func (f *fakeMessageRepo) MarkRemoved(_ context.Context, messageID int) (int64, error) {
	f.markRemoved = append(f.markRemoved, messageID)
	return 1, nil
}

func (f *fakeMessageRepo) UpdateContent(_ context.Context, messageID int, content string) error {
	f.edited[messageID] = content
	return nil
}

type fakeReactionRepo struct {
	active map[string]bool
}

func reactionKey(messageID, userID int, emoji string) string {
	return fmt.Sprintf("%s:%d:%d", emoji, messageID, userID)
}

func (f *fakeReactionRepo) Toggle(_ context.Context, messageID, userID int, emoji string) (bool, error) {
	if f.active == nil {
		f.active = map[string]bool{}
	}
	key := reactionKey(messageID, userID, emoji)
	f.active[key] = !f.active[key]
	return f.active[key], nil
}

func (f *fakeReactionRepo) Summary(_ context.Context, messageID int, emoji string) (int, []int, error) {
	count := 0
	for key, on := range f.active {
		if on && strings.HasPrefix(key, emoji+":") {
			count++
		}
	}
	return count, []int{}, nil
}

func (f *fakeReactionRepo) ForMessages(_ context.Context, _ []int) (map[int][]types.ReactionGroup, error) {
	return map[int][]types.ReactionGroup{}, nil
}

type fakeMembership struct {
	members map[int][]int
}

func (f *fakeMembership) IsMember(_ context.Context, roomID, userID int) (bool, error) {
	for _, id := range f.members[roomID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakePresence struct {
	touched []int
	users   map[int]types.User
}

func (f *fakePresence) TouchLastSeen(_ context.Context, id int) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakePresence) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakePresence) GetByUsername(_ context.Context, username string) (types.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func newTestMessageService(msgs *fakeMessageRepo, rooms *fakeMembership) *MessageService {
	presence := &fakePresence{users: map[int]types.User{
		1: {ID: 1, Username: "kira", Badge: "og"},
		2: {ID: 2, Username: "dima"},
	}}
	return NewMessageService(msgs, &fakeReactionRepo{}, rooms, presence, nil)
}

func TestNormalizeChannel(t *testing.T) {
	cases := map[string]string{
		"general":   "general",
		"memes":     "memes",
		"teammates": "teammates",
		"meet":      "meet",
		"":          "general",
		"hax0r":     "general",
		"GENERAL":   "general",
	}
	for in, want := range cases {
		if got := NormalizeChannel(in); got != want {
			t.Fatalf("NormalizeChannel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPostSanitizesContent(t *testing.T) {
	msgs := newFakeMessageRepo()
	svc := newTestMessageService(msgs, &fakeMembership{})
	author := types.Identity{UserID: 1, Username: "kira"}

	msg, err := svc.Post(context.Background(), author, "general", 0, "hi <script>alert('xss')</script>everyone")
	if err != nil {
		t.Fatalf("Post() error: %v", err)
	}
	if strings.ContainsAny(msg.Content, "<>;&") {
		t.Fatalf("dangerous characters survived: %q", msg.Content)
	}
	if msg.Badge != "og" {
		t.Fatalf("author badge not attached: %+v", msg)
	}
}

func TestPostRejectsEmptyAndOversized(t *testing.T) {
	svc := newTestMessageService(newFakeMessageRepo(), &fakeMembership{})
	author := types.Identity{UserID: 1}
	ctx := context.Background()

	if _, err := svc.Post(ctx, author, "general", 0, "<b></b>  "); apiStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for markup-only content")
	}
	if _, err := svc.Post(ctx, author, "general", 0, strings.Repeat("x", 2001)); apiStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized content")
	}
}

func TestPostToRoomRequiresMembership(t *testing.T) {
	msgs := newFakeMessageRepo()
	rooms := &fakeMembership{members: map[int][]int{10: {1}}}
	svc := newTestMessageService(msgs, rooms)
	ctx := context.Background()

	if _, err := svc.Post(ctx, types.Identity{UserID: 2}, "", 10, "hello"); apiStatus(t, err) != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member")
	}
	if _, err := svc.Post(ctx, types.Identity{UserID: 1, Username: "kira"}, "", 10, "hello"); err != nil {
		t.Fatalf("member post failed: %v", err)
	}
	if msgs.created[0].RoomID != 10 {
		t.Fatalf("message not stored in the room: %+v", msgs.created[0])
	}
}

func TestDeleteAuthorOrAdmin(t *testing.T) {
	msgs := newFakeMessageRepo()
	msgs.authors[5] = 1
	svc := newTestMessageService(msgs, &fakeMembership{})
	ctx := context.Background()

	if err := svc.Delete(ctx, types.Identity{UserID: 2}, 5); apiStatus(t, err) != http.StatusForbidden {
		t.Fatalf("expected 403 for a stranger")
	}
	if err := svc.Delete(ctx, types.Identity{UserID: 2, IsAdmin: true}, 5); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if err := svc.Delete(ctx, types.Identity{UserID: 1}, 5); err != nil {
		t.Fatalf("author delete failed: %v", err)
	}
}

func TestEditAuthorOnlyAndNotRemoved(t *testing.T) {
	msgs := newFakeMessageRepo()
	msgs.authors[5] = 1
	msgs.authors[6] = 1
	msgs.removedIDs[6] = true
	svc := newTestMessageService(msgs, &fakeMembership{})
	ctx := context.Background()

	if _, err := svc.Edit(ctx, types.Identity{UserID: 2, IsAdmin: true}, 5, "new"); apiStatus(t, err) != http.StatusForbidden {
		t.Fatalf("admins must not edit other people's messages")
	}
	if _, err := svc.Edit(ctx, types.Identity{UserID: 1}, 6, "new"); apiStatus(t, err) != http.StatusNotFound {
		t.Fatalf("expected 404 for a removed message")
	}

	content, err := svc.Edit(ctx, types.Identity{UserID: 1}, 5, "  fixed <i>typo</i>  ")
	if err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	if content != "fixed typo" {
		t.Fatalf("unexpected content after edit: %q", content)
	}
}

func TestReactAllowListAndToggle(t *testing.T) {
	msgs := newFakeMessageRepo()
	msgs.authors[5] = 1
	svc := newTestMessageService(msgs, &fakeMembership{})
	caller := types.Identity{UserID: 1}
	ctx := context.Background()

	if _, err := svc.React(ctx, caller, 5, "💩"); apiStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for emoji outside the allow-list")
	}

	first, err := svc.React(ctx, caller, 5, "🔥")
	if err != nil {
		t.Fatalf("React() error: %v", err)
	}
	if !first.Added {
		t.Fatalf("first toggle should add the reaction")
	}

	second, err := svc.React(ctx, caller, 5, "🔥")
	if err != nil {
		t.Fatalf("React() error: %v", err)
	}
	if second.Added {
		t.Fatalf("second toggle should remove the reaction")
	}
}

func TestListChannelBlanksRemovedContent(t *testing.T) {
	msgs := newFakeMessageRepo()
	msgs.channelMsgs = []types.Message{
		{ID: 1, Content: "still here"},
		{ID: 2, Content: "secret", IsRemoved: true},
	}
	svc := newTestMessageService(msgs, &fakeMembership{})

	listed, err := svc.ListChannel(context.Background(), nil, "general")
	if err != nil {
		t.Fatalf("ListChannel() error: %v", err)
	}
	if listed[0].Content != "still here" {
		t.Fatalf("live message altered: %q", listed[0].Content)
	}
	if listed[1].Content != "" {
		t.Fatalf("removed message leaked its content: %q", listed[1].Content)
	}
}
