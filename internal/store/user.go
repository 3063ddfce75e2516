package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/frikords/apiserver/types"
)

const userColumns = `id, username, email, favorite_game, avatar_url, badge, is_admin, is_banned, password_hash, last_seen, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FavoriteGame,
		&user.AvatarURL,
		&user.Badge,
		&user.IsAdmin,
		&user.IsBanned,
		&user.PasswordHash,
		&user.LastSeen,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// Exists reports whether a user with the given username or email is
// already registered. Email comparison is exact; callers lower-case it.
func (r *UserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastSeen = now

	const query = `
		INSERT INTO users (username, email, password_hash, favorite_game, last_seen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FavoriteGame,
		user.LastSeen,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// UpdatePasswordHash overwrites the stored credential, used for the
// transparent legacy-hash migration on login.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int, hash string) error {
	const query = `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`
	return r.execExpectingRow(ctx, query, hash, id)
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id int, username string) error {
	const query = `UPDATE users SET username = $1, updated_at = now() WHERE id = $2`
	return r.execExpectingRow(ctx, query, username, id)
}

// UsernameTaken reports whether another user already holds the name.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`
	var taken bool
	if err := r.db.QueryRowContext(ctx, query, username, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func (r *UserRepository) UpdateFavoriteGame(ctx context.Context, id int, game string) error {
	const query = `UPDATE users SET favorite_game = $1, updated_at = now() WHERE id = $2`
	return r.execExpectingRow(ctx, query, game, id)
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, id int, url string) error {
	const query = `UPDATE users SET avatar_url = $1, updated_at = now() WHERE id = $2`
	return r.execExpectingRow(ctx, query, url, id)
}

func (r *UserRepository) UpdateBadge(ctx context.Context, id int, badge string) error {
	const query = `UPDATE users SET badge = $1, updated_at = now() WHERE id = $2`
	return r.execExpectingRow(ctx, query, badge, id)
}

func (r *UserRepository) TouchLastSeen(ctx context.Context, id int) error {
	const query = `UPDATE users SET last_seen = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// SetBanned flips the ban flag and, when banning, revokes every session
// the target holds. Both writes commit or roll back together so a banned
// user cannot keep using an existing token.
func (r *UserRepository) SetBanned(ctx context.Context, id int, banned bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE users SET is_banned = $1, updated_at = now() WHERE id = $2`, banned, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	if banned {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Online lists non-banned users seen within the given window.
func (r *UserRepository) Online(ctx context.Context, window time.Duration, limit int) ([]types.PublicUser, error) {
	const query = `
		SELECT id, username, favorite_game
		FROM users
		WHERE last_seen > now() - $1 * interval '1 second' AND is_banned = FALSE
		ORDER BY username ASC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, int(window.Seconds()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.PublicUser
	for rows.Next() {
		var u types.PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.FavoriteGame); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Search lists users for the admin console, optionally filtered by a
// case-insensitive username/email substring.
func (r *UserRepository) Search(ctx context.Context, q string, limit, offset int) ([]types.User, error) {
	const query = `
		SELECT id, username, email, favorite_game, is_admin, is_banned, created_at
		FROM users
		WHERE ($1 = '' OR username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FavoriteGame, &u.IsAdmin, &u.IsBanned, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns total users, banned users and users created in the
// last 24 hours, for the admin stats snapshot.
func (r *UserRepository) CountUsers(ctx context.Context) (total, banned, new24h int, err error) {
	const query = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_banned),
			COUNT(*) FILTER (WHERE created_at > now() - interval '24 hours')
		FROM users`
	err = r.db.QueryRowContext(ctx, query).Scan(&total, &banned, &new24h)
	return total, banned, new24h, err
}

func (r *UserRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
