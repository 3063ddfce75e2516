package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frikords/apiserver/internal/sanitize"
	"github.com/frikords/apiserver/internal/storage"
	"github.com/frikords/apiserver/internal/store"
	"github.com/frikords/apiserver/types"
)

const (
	onlineWindow    = 2 * time.Minute
	onlineListLimit = 50

	maxAvatarBytes = 2 << 20
	maxBadgeLength = 64
)

// avatarTypes maps the accepted image MIME types to file extensions.
var avatarTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// UserRepository is the persistence contract for profiles and presence.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error)
	UpdateUsername(ctx context.Context, id int, username string) error
	UpdateFavoriteGame(ctx context.Context, id int, game string) error
	UpdateAvatarURL(ctx context.Context, id int, url string) error
	TouchLastSeen(ctx context.Context, id int) error
	Online(ctx context.Context, window time.Duration, limit int) ([]types.PublicUser, error)
}

// MessageCounter reports per-user message totals for profiles.
type MessageCounter interface {
	CountByUser(ctx context.Context, userID int) (int, error)
}

// UserService covers public profiles, settings, presence and avatars.
type UserService struct {
	users         UserRepository
	messages      MessageCounter
	objects       *storage.Storage
	publicBaseURL string
}

func NewUserService(users UserRepository, messages MessageCounter, objects *storage.Storage, publicBaseURL string) *UserService {
	return &UserService{
		users:         users,
		messages:      messages,
		objects:       objects,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Profile is a public user projection plus their message count.
type Profile struct {
	types.PublicUser
	MessageCount int `json:"message_count"`
}

// Profile returns the public profile of a non-banned user, addressed by
// username or by id.
func (s *UserService) Profile(ctx context.Context, userID int, username string) (Profile, error) {
	var user types.User
	var err error
	switch {
	case username != "":
		user, err = s.users.GetByUsername(ctx, username)
	case userID > 0:
		user, err = s.users.GetByID(ctx, userID)
	default:
		return Profile{}, Invalid("username or user_id is required")
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Profile{}, NotFound("user not found")
		}
		return Profile{}, err
	}
	if user.IsBanned {
		return Profile{}, NotFound("user not found")
	}
	count, err := s.messages.CountByUser(ctx, user.ID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{PublicUser: user.Public(), MessageCount: count}, nil
}

// Settings is the caller's own profile view. Unlike PublicUser it
// carries the email, which only the owner may see.
type Settings struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FavoriteGame string `json:"favorite_game"`
	AvatarURL    string `json:"avatar_url"`
}

// Settings returns the caller's own editable profile fields.
func (s *UserService) Settings(ctx context.Context, caller types.Identity) (Settings, error) {
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FavoriteGame: user.FavoriteGame,
		AvatarURL:    user.AvatarURL,
	}, nil
}

// UpdateSettings applies username and favorite-game changes. Empty
// fields are left untouched.
func (s *UserService) UpdateSettings(ctx context.Context, caller types.Identity, username, favoriteGame string) (Settings, error) {
	username = sanitize.Clean(username)
	if username != "" {
		if n := len([]rune(username)); n < 2 || n > 32 {
			return Settings{}, Invalid("username must be 2-32 characters")
		}
		taken, err := s.users.UsernameTaken(ctx, username, caller.UserID)
		if err != nil {
			return Settings{}, err
		}
		if taken {
			return Settings{}, Conflict("username already taken")
		}
		if err := s.users.UpdateUsername(ctx, caller.UserID, username); err != nil {
			return Settings{}, err
		}
	}
	if favoriteGame = sanitize.Clean(favoriteGame); favoriteGame != "" {
		if err := s.users.UpdateFavoriteGame(ctx, caller.UserID, favoriteGame); err != nil {
			return Settings{}, err
		}
	}
	return s.Settings(ctx, caller)
}

// Online lists users seen within the last two minutes, alphabetical.
func (s *UserService) Online(ctx context.Context) ([]types.PublicUser, error) {
	users, err := s.users.Online(ctx, onlineWindow, onlineListLimit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []types.PublicUser{}
	}
	return users, nil
}

// UploadAvatar decodes a data-URL image, stores it in object storage and
// persists the resulting public URL on the user.
func (s *UserService) UploadAvatar(ctx context.Context, caller types.Identity, dataURL string) (string, error) {
	if s.objects == nil {
		return "", Invalid("avatar uploads are disabled")
	}
	mimeType, data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	ext, ok := avatarTypes[mimeType]
	if !ok {
		return "", Invalid("avatar must be a jpeg, png or webp image")
	}
	if len(data) > maxAvatarBytes {
		return "", Invalid("avatar must be at most 2 MB")
	}

	key := fmt.Sprintf("avatars/%d-%d.%s", caller.UserID, time.Now().Unix(), ext)
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.objects.Bucket(), key)
	if err := s.users.UpdateAvatarURL(ctx, caller.UserID, url); err != nil {
		return "", err
	}
	return url, nil
}

// decodeDataURL splits a "data:<mime>;base64,<payload>" string.
func decodeDataURL(dataURL string) (mimeType string, data []byte, err error) {
	const prefix = "data:"
	if !strings.HasPrefix(dataURL, prefix) {
		return "", nil, Invalid("avatar must be a data URL")
	}
	meta, payload, found := strings.Cut(dataURL[len(prefix):], ",")
	if !found {
		return "", nil, Invalid("avatar must be a data URL")
	}
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return "", nil, Invalid("avatar must be base64 encoded")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, Invalid("avatar payload is not valid base64")
	}
	return mimeType, data, nil
}
