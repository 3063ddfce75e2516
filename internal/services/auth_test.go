package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/frikords/apiserver/internal/store"
	"github.com/frikords/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	byEmail     map[string]types.User
	taken       bool
	created     []types.User
	rehashed    map[int]string
	existsErr   error
	getEmailErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail:  map[string]types.User{},
		rehashed: map[int]string{},
	}
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	if f.getEmailErr != nil {
		return types.User{}, f.getEmailErr
	}
	user, ok := f.byEmail[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) Exists(_ context.Context, _, _ string) (bool, error) {
	return f.taken, f.existsErr
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = len(f.created) + 1
	f.created = append(f.created, user)
	return user, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id int, hash string) error {
	f.rehashed[id] = hash
	return nil
}

type fakeSessionRepo struct {
	sessions []types.Session
}

func (f *fakeSessionRepo) Create(_ context.Context, session types.Session) error {
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakeSessionRepo) ResolveIdentity(_ context.Context, token string) (types.Identity, error) {
	for _, s := range f.sessions {
		if s.Token == token {
			return types.Identity{UserID: s.UserID, Username: "someone"}, nil
		}
	}
	return types.Identity{}, store.ErrNotFound
}

func newTestAuthService(users *fakeUserRepo, sessions *fakeSessionRepo) *AuthService {
	return NewAuthService(users, sessions, nil, 30*24*time.Hour)
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	return apiErr.Status
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), &fakeSessionRepo{})
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"missing fields", "", "", ""},
		{"short username", "a", "a@example.com", "password123"},
		{"bad email", "kira", "not-an-email", "password123"},
		{"short password", "kira", "kira@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password, "")
			if apiStatus(t, err) != http.StatusBadRequest {
				t.Fatalf("expected 400 for %s", tc.name)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	users := newFakeUserRepo()
	users.taken = true
	svc := newTestAuthService(users, &fakeSessionRepo{})

	_, err := svc.Register(context.Background(), "kira", "kira@example.com", "password123", "")
	if apiStatus(t, err) != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate account, got %v", err)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users, &fakeSessionRepo{})

	user, err := svc.Register(context.Background(), "kira", "KIRA@Example.COM", "password123", "<b>cs2</b>")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if user.Email != "kira@example.com" {
		t.Fatalf("email not lower-cased: %q", user.Email)
	}
	if user.FavoriteGame != "cs2" {
		t.Fatalf("favorite game not sanitized: %q", user.FavoriteGame)
	}
	stored := users.created[0].PasswordHash
	if stored == "password123" {
		t.Fatalf("password stored in plain text")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte("password123")) != nil {
		t.Fatalf("stored hash does not verify the password")
	}
}

func TestLoginGenericFailureForUnknownAndWrongPassword(t *testing.T) {
	users := newFakeUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	users.byEmail["kira@example.com"] = types.User{ID: 1, Email: "kira@example.com", PasswordHash: string(hash)}
	svc := newTestAuthService(users, &fakeSessionRepo{})
	ctx := context.Background()

	_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "whatever1", "127.0.0.1")
	_, _, errWrongPw := svc.Login(ctx, "kira@example.com", "wrong-password", "127.0.0.1")

	if apiStatus(t, errUnknown) != http.StatusUnauthorized || apiStatus(t, errWrongPw) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both failures, got %v / %v", errUnknown, errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Fatalf("failure messages differ: %q vs %q", errUnknown.Error(), errWrongPw.Error())
	}
}

func TestLoginMintsSession(t *testing.T) {
	users := newFakeUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	users.byEmail["kira@example.com"] = types.User{ID: 7, Email: "kira@example.com", PasswordHash: string(hash)}
	sessions := &fakeSessionRepo{}
	svc := newTestAuthService(users, sessions)

	token, user, err := svc.Login(context.Background(), "Kira@Example.com", "correct-horse", "127.0.0.1")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64-char hex token, got %d chars", len(token))
	}
	if user.ID != 7 {
		t.Fatalf("unexpected user: %+v", user)
	}

	if len(sessions.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.sessions))
	}
	session := sessions.sessions[0]
	wantExpiry := session.CreatedAt.Add(30 * 24 * time.Hour)
	if !session.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("unexpected expiry: %v", session.ExpiresAt)
	}
}

func TestLoginMigratesLegacyHash(t *testing.T) {
	users := newFakeUserRepo()
	sum := sha256.Sum256([]byte("oldpassword"))
	users.byEmail["old@example.com"] = types.User{ID: 3, Email: "old@example.com", PasswordHash: hex.EncodeToString(sum[:])}
	svc := newTestAuthService(users, &fakeSessionRepo{})

	if _, _, err := svc.Login(context.Background(), "old@example.com", "oldpassword", "127.0.0.1"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	rehashed, ok := users.rehashed[3]
	if !ok {
		t.Fatalf("legacy credential was not migrated")
	}
	if bcrypt.CompareHashAndPassword([]byte(rehashed), []byte("oldpassword")) != nil {
		t.Fatalf("migrated hash does not verify the password")
	}
}

func TestLoginLegacyHashWrongPassword(t *testing.T) {
	users := newFakeUserRepo()
	sum := sha256.Sum256([]byte("oldpassword"))
	users.byEmail["old@example.com"] = types.User{ID: 3, Email: "old@example.com", PasswordHash: hex.EncodeToString(sum[:])}
	svc := newTestAuthService(users, &fakeSessionRepo{})

	_, _, err := svc.Login(context.Background(), "old@example.com", "wrongpassword", "127.0.0.1")
	if apiStatus(t, err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if len(users.rehashed) != 0 {
		t.Fatalf("credential must not migrate on a failed login")
	}
}

func TestLoginBannedAfterPasswordCheck(t *testing.T) {
	users := newFakeUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	users.byEmail["banned@example.com"] = types.User{
		ID: 5, Email: "banned@example.com", PasswordHash: string(hash), IsBanned: true,
	}
	svc := newTestAuthService(users, &fakeSessionRepo{})
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "banned@example.com", "correct-horse", "127.0.0.1")
	if apiStatus(t, err) != http.StatusForbidden {
		t.Fatalf("expected 403 for banned account, got %v", err)
	}

	_, _, err = svc.Login(ctx, "banned@example.com", "wrong-password", "127.0.0.1")
	if apiStatus(t, err) != http.StatusUnauthorized {
		t.Fatalf("ban status must not leak on a wrong password, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	sessions := &fakeSessionRepo{sessions: []types.Session{{Token: "livetoken", UserID: 12}}}
	svc := newTestAuthService(newFakeUserRepo(), sessions)
	ctx := context.Background()

	identity, err := svc.Authenticate(ctx, "livetoken")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if identity.UserID != 12 {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	if _, err := svc.Authenticate(ctx, ""); apiStatus(t, err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for empty token")
	}
	if _, err := svc.Authenticate(ctx, "bogus"); apiStatus(t, err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token")
	}
}
