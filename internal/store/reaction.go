package store

import (
	"context"
	"database/sql"

	"github.com/frikords/apiserver/types"
	"github.com/lib/pq"
)

// ReactionRepository handles emoji reactions on messages.
type ReactionRepository struct {
	db *sql.DB
}

func NewReactionRepository(db *sql.DB) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Toggle flips a (message, user, emoji) reaction on or off in one upsert
// and reports the resulting state.
func (r *ReactionRepository) Toggle(ctx context.Context, messageID, userID int, emoji string) (bool, error) {
	const query = `
		INSERT INTO message_reactions (message_id, user_id, emoji, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (message_id, user_id, emoji)
		DO UPDATE SET is_active = NOT message_reactions.is_active
		RETURNING is_active`
	var active bool
	if err := r.db.QueryRowContext(ctx, query, messageID, userID, emoji).Scan(&active); err != nil {
		return false, err
	}
	return active, nil
}

// Summary returns the active count and reacting user ids for one emoji on
// one message, echoed back after a toggle.
func (r *ReactionRepository) Summary(ctx context.Context, messageID int, emoji string) (int, []int, error) {
	const query = `
		SELECT COUNT(*), COALESCE(array_agg(user_id), '{}')
		FROM message_reactions
		WHERE message_id = $1 AND emoji = $2 AND is_active = TRUE`
	var count int
	var users pq.Int64Array
	if err := r.db.QueryRowContext(ctx, query, messageID, emoji).Scan(&count, &users); err != nil {
		return 0, nil, err
	}
	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, int(u))
	}
	return count, ids, nil
}

// ForMessages returns the active reaction groups for a batch of messages,
// keyed by message id.
func (r *ReactionRepository) ForMessages(ctx context.Context, messageIDs []int) (map[int][]types.ReactionGroup, error) {
	result := make(map[int][]types.ReactionGroup)
	if len(messageIDs) == 0 {
		return result, nil
	}

	ids := make(pq.Int64Array, 0, len(messageIDs))
	for _, id := range messageIDs {
		ids = append(ids, int64(id))
	}

	const query = `
		SELECT message_id, emoji, COUNT(*), array_agg(user_id)
		FROM message_reactions
		WHERE message_id = ANY($1) AND is_active = TRUE
		GROUP BY message_id, emoji`
	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var messageID int
		var group types.ReactionGroup
		var users pq.Int64Array
		if err := rows.Scan(&messageID, &group.Emoji, &group.Count, &users); err != nil {
			return nil, err
		}
		group.Users = make([]int, 0, len(users))
		for _, u := range users {
			group.Users = append(group.Users, int(u))
		}
		result[messageID] = append(result[messageID], group)
	}
	return result, rows.Err()
}
