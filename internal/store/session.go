package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/frikords/apiserver/types"
)

// SessionRepository handles persistence for bearer-token sessions.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session types.Session) error {
	const query = `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, session.Token, session.UserID, session.CreatedAt, session.ExpiresAt)
	return err
}

// ResolveIdentity maps an unexpired token to the caller's identity in one
// round trip. Banned users never resolve, whatever token they hold.
func (r *SessionRepository) ResolveIdentity(ctx context.Context, token string) (types.Identity, error) {
	const query = `
		SELECT u.id, u.username, u.favorite_game, u.is_admin
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > now() AND u.is_banned = FALSE`
	var id types.Identity
	err := r.db.QueryRowContext(ctx, query, token).Scan(&id.UserID, &id.Username, &id.FavoriteGame, &id.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Identity{}, ErrNotFound
		}
		return types.Identity{}, err
	}
	return id, nil
}

// DeleteExpired prunes sessions past their expiry. Safe to call from an
// operator task; authentication never depends on it.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= $1`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
