package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frikords/apiserver/types"
)

// DirectMessageRepository handles private messages between friends.
type DirectMessageRepository struct {
	db *sql.DB
}

func NewDirectMessageRepository(db *sql.DB) *DirectMessageRepository {
	return &DirectMessageRepository{db: db}
}

// ListConversation returns the oldest-first tail of the conversation
// between two users.
func (r *DirectMessageRepository) ListConversation(ctx context.Context, userID, otherID, limit int) ([]types.DirectMessage, error) {
	const query = `
		SELECT dm.id, dm.content, dm.created_at, u.username, dm.is_removed
		FROM direct_messages dm
		JOIN users u ON u.id = dm.sender_id
		WHERE (dm.sender_id = $1 AND dm.receiver_id = $2) OR (dm.sender_id = $2 AND dm.receiver_id = $1)
		ORDER BY dm.created_at ASC
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, userID, otherID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []types.DirectMessage
	for rows.Next() {
		var m types.DirectMessage
		if err := rows.Scan(&m.ID, &m.Content, &m.CreatedAt, &m.Username, &m.IsRemoved); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *DirectMessageRepository) Create(ctx context.Context, senderID, receiverID int, content string) (types.DirectMessage, error) {
	const query = `
		INSERT INTO direct_messages (sender_id, receiver_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	m := types.DirectMessage{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := r.db.QueryRowContext(ctx, query, senderID, receiverID, content).Scan(&m.ID, &m.CreatedAt); err != nil {
		return types.DirectMessage{}, err
	}
	return m, nil
}

// SenderID returns who sent a direct message.
func (r *DirectMessageRepository) SenderID(ctx context.Context, messageID int) (int, error) {
	const query = `SELECT sender_id FROM direct_messages WHERE id = $1`
	var senderID int
	err := r.db.QueryRowContext(ctx, query, messageID).Scan(&senderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return senderID, nil
}

func (r *DirectMessageRepository) MarkRemoved(ctx context.Context, messageID int) error {
	const query = `UPDATE direct_messages SET is_removed = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, messageID)
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
