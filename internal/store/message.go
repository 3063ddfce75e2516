package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frikords/apiserver/types"
)

// MessageRepository handles persistence for channel and room messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageListColumns = `
	m.id, m.content, m.created_at, u.username, u.favorite_game,
	m.is_removed, m.user_id, m.edited, u.avatar_url, u.badge`

func (r *MessageRepository) scanList(rows *sql.Rows) ([]types.Message, error) {
	defer rows.Close()
	var msgs []types.Message
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(
			&m.ID,
			&m.Content,
			&m.CreatedAt,
			&m.Username,
			&m.FavoriteGame,
			&m.IsRemoved,
			&m.UserID,
			&m.Edited,
			&m.AvatarURL,
			&m.Badge,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ListChannel returns the oldest-first tail of a public channel.
func (r *MessageRepository) ListChannel(ctx context.Context, channel string, limit int) ([]types.Message, error) {
	const query = `
		SELECT ` + messageListColumns + `
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.channel = $1 AND m.room_id IS NULL
		ORDER BY m.created_at ASC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, channel, limit)
	if err != nil {
		return nil, err
	}
	return r.scanList(rows)
}

// ListRoom returns the oldest-first tail of a room.
func (r *MessageRepository) ListRoom(ctx context.Context, roomID, limit int) ([]types.Message, error) {
	const query = `
		SELECT ` + messageListColumns + `
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.created_at ASC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, err
	}
	return r.scanList(rows)
}

// CreateInChannel inserts a channel message and fills in id/created_at.
func (r *MessageRepository) CreateInChannel(ctx context.Context, userID int, channel, content string) (types.Message, error) {
	const query = `
		INSERT INTO messages (user_id, channel, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	m := types.Message{UserID: userID, Channel: channel, Content: content}
	if err := r.db.QueryRowContext(ctx, query, userID, channel, content).Scan(&m.ID, &m.CreatedAt); err != nil {
		return types.Message{}, err
	}
	return m, nil
}

// CreateInRoom inserts a room message and fills in id/created_at.
func (r *MessageRepository) CreateInRoom(ctx context.Context, userID, roomID int, content string) (types.Message, error) {
	const query = `
		INSERT INTO messages (user_id, room_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	m := types.Message{UserID: userID, RoomID: roomID, Content: content}
	if err := r.db.QueryRowContext(ctx, query, userID, roomID, content).Scan(&m.ID, &m.CreatedAt); err != nil {
		return types.Message{}, err
	}
	return m, nil
}

// Author returns the author of a message; removedOK controls whether
// soft-deleted messages are visible to the lookup.
func (r *MessageRepository) Author(ctx context.Context, messageID int, removedOK bool) (int, error) {
	const query = `SELECT user_id FROM messages WHERE id = $1 AND ($2 OR is_removed = FALSE)`
	var userID int
	err := r.db.QueryRowContext(ctx, query, messageID, removedOK).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return userID, nil
}

func (r *MessageRepository) MarkRemoved(ctx context.Context, messageID int) (int64, error) {
	const query = `UPDATE messages SET is_removed = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, messageID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *MessageRepository) UpdateContent(ctx context.Context, messageID int, content string) error {
	const query = `UPDATE messages SET content = $1, edited = TRUE WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, content, messageID)
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

// ClearChannel soft-deletes every live message in a channel and
// reports how many were hit.
func (r *MessageRepository) ClearChannel(ctx context.Context, channel string) (int64, error) {
	const query = `UPDATE messages SET is_removed = TRUE WHERE channel = $1 AND room_id IS NULL AND is_removed = FALSE`
	result, err := r.db.ExecContext(ctx, query, channel)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ClearRoom soft-deletes every live message in a room.
func (r *MessageRepository) ClearRoom(ctx context.Context, roomID int) (int64, error) {
	const query = `UPDATE messages SET is_removed = TRUE WHERE room_id = $1 AND is_removed = FALSE`
	result, err := r.db.ExecContext(ctx, query, roomID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// AdminListChannel returns the newest-first channel tail for moderation,
// removed messages included.
func (r *MessageRepository) AdminListChannel(ctx context.Context, channel string, limit int) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.content, m.created_at, u.username, m.is_removed, m.room_id, m.channel
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.channel = $1 AND m.room_id IS NULL
		ORDER BY m.created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, channel, limit)
	if err != nil {
		return nil, err
	}
	return r.scanAdminList(rows)
}

// AdminListRoom returns the newest-first room tail for moderation.
func (r *MessageRepository) AdminListRoom(ctx context.Context, roomID, limit int) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.content, m.created_at, u.username, m.is_removed, m.room_id, m.channel
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, err
	}
	return r.scanAdminList(rows)
}

func (r *MessageRepository) scanAdminList(rows *sql.Rows) ([]types.Message, error) {
	defer rows.Close()
	var msgs []types.Message
	for rows.Next() {
		var m types.Message
		var roomID sql.NullInt64
		var channel sql.NullString
		if err := rows.Scan(&m.ID, &m.Content, &m.CreatedAt, &m.Username, &m.IsRemoved, &roomID, &channel); err != nil {
			return nil, err
		}
		m.RoomID = int(roomID.Int64)
		m.Channel = channel.String
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountByUser returns how many live messages a user has posted.
func (r *MessageRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	const query = `SELECT COUNT(*) FROM messages WHERE user_id = $1 AND is_removed = FALSE`
	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

// CountMessages returns total messages and messages from the last 24
// hours, for the admin stats snapshot.
func (r *MessageRepository) CountMessages(ctx context.Context) (total, last24h int, err error) {
	const query = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE created_at > now() - interval '24 hours')
		FROM messages`
	err = r.db.QueryRowContext(ctx, query).Scan(&total, &last24h)
	return total, last24h, err
}
