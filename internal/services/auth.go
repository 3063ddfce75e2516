package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/frikords/apiserver/internal/sanitize"
	"github.com/frikords/apiserver/internal/store"
	"github.com/frikords/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	minUsernameLength = 2
	maxUsernameLength = 32
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// legacyHashPattern matches the deprecated unsalted sha256-hex credential
// format, kept only so existing accounts migrate on their next login.
var legacyHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// AuthUserRepository defines the user persistence the auth flow needs.
type AuthUserRepository interface {
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdatePasswordHash(ctx context.Context, id int, hash string) error
}

// SessionRepository defines session persistence for the auth flow.
type SessionRepository interface {
	Create(ctx context.Context, session types.Session) error
	ResolveIdentity(ctx context.Context, token string) (types.Identity, error)
}

// AuthService covers registration, login and bearer-token resolution.
type AuthService struct {
	users      AuthUserRepository
	sessions   SessionRepository
	audit      *AuditService
	sessionTTL time.Duration
}

func NewAuthService(users AuthUserRepository, sessions SessionRepository, audit *AuditService, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		audit:      audit,
		sessionTTL: sessionTTL,
	}
}

// Register validates and creates a new account.
func (s *AuthService) Register(ctx context.Context, username, email, password, favoriteGame string) (types.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	favoriteGame = sanitize.Clean(favoriteGame)

	if username == "" || email == "" || password == "" {
		return types.User{}, Invalid("username, email and password are required")
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return types.User{}, Invalid(fmt.Sprintf("username must be %d-%d characters", minUsernameLength, maxUsernameLength))
	}
	if !emailPattern.MatchString(email) {
		return types.User{}, Invalid("invalid email address")
	}
	if len(password) < minPasswordLength {
		return types.User{}, Invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	exists, err := s.users.Exists(ctx, username, email)
	if err != nil {
		return types.User{}, err
	}
	if exists {
		return types.User{}, Conflict("a user with this email or username already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.users.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		FavoriteGame: favoriteGame,
	})
}

// Login verifies credentials and mints a session token. The caller never
// learns whether the email or the password was the wrong half.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (string, types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", types.User{}, Invalid("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.audit.Record(ctx, types.AuditWarn, "login", "failed login", email, ip, 0)
			return "", types.User{}, Unauthorized("invalid email or password")
		}
		return "", types.User{}, err
	}

	ok, err := s.verifyAndMigrate(ctx, user, password)
	if err != nil {
		return "", types.User{}, err
	}
	if !ok {
		s.audit.Record(ctx, types.AuditWarn, "login", "failed login", email, ip, user.ID)
		return "", types.User{}, Unauthorized("invalid email or password")
	}

	if user.IsBanned {
		s.audit.Record(ctx, types.AuditWarn, "login", "banned account login attempt", email, ip, user.ID)
		return "", types.User{}, Forbidden("account banned")
	}

	token, err := newSessionToken()
	if err != nil {
		return "", types.User{}, err
	}
	now := time.Now()
	if err := s.sessions.Create(ctx, types.Session{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}); err != nil {
		return "", types.User{}, err
	}
	return token, user, nil
}

// verifyAndMigrate checks the password against the stored credential and,
// when the credential is still in the legacy format and matches, rewrites
// it as a bcrypt hash in place.
func (s *AuthService) verifyAndMigrate(ctx context.Context, user types.User, password string) (bool, error) {
	if legacyHashPattern.MatchString(user.PasswordHash) {
		sum := sha256.Sum256([]byte(password))
		candidate := hex.EncodeToString(sum[:])
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(user.PasswordHash)) != 1 {
			return false, nil
		}
		rehashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return false, err
		}
		if err := s.users.UpdatePasswordHash(ctx, user.ID, string(rehashed)); err != nil {
			return false, err
		}
		return true, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil, nil
}

// Authenticate resolves a bearer token to the caller's identity. An empty
// token never hits storage; an unknown token is a normal miss, not an
// internal error.
func (s *AuthService) Authenticate(ctx context.Context, token string) (types.Identity, error) {
	if token == "" {
		return types.Identity{}, Unauthorized("authentication required")
	}
	identity, err := s.sessions.ResolveIdentity(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Identity{}, Unauthorized("authentication required")
		}
		return types.Identity{}, err
	}
	return identity, nil
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
