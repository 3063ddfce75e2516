package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frikords/apiserver/types"
)

// FriendRepository handles friend requests and friendships.
type FriendRepository struct {
	db *sql.DB
}

func NewFriendRepository(db *sql.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// AreFriends reports whether an accepted relationship exists between the
// two users, in either direction.
func (r *FriendRepository) AreFriends(ctx context.Context, userA, userB int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM friend_requests
			WHERE ((from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1))
			AND status = $3
		)`
	var friends bool
	if err := r.db.QueryRowContext(ctx, query, userA, userB, types.FriendAccepted).Scan(&friends); err != nil {
		return false, err
	}
	return friends, nil
}

// ListFriends returns the accepted friends of a user, banned users
// filtered out.
func (r *FriendRepository) ListFriends(ctx context.Context, userID int) ([]types.FriendEntry, error) {
	const query = `
		SELECT u.id, u.username, u.favorite_game
		FROM friend_requests fr
		JOIN users u ON u.id = CASE WHEN fr.from_user_id = $1 THEN fr.to_user_id ELSE fr.from_user_id END
		WHERE (fr.from_user_id = $1 OR fr.to_user_id = $1)
			AND fr.status = $2 AND u.is_banned = FALSE`
	rows, err := r.db.QueryContext(ctx, query, userID, types.FriendAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []types.FriendEntry
	for rows.Next() {
		var f types.FriendEntry
		if err := rows.Scan(&f.UserID, &f.Username, &f.FavoriteGame); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// ListIncoming returns the pending requests addressed to a user, newest
// first, banned senders filtered out.
func (r *FriendRepository) ListIncoming(ctx context.Context, userID int) ([]types.FriendEntry, error) {
	const query = `
		SELECT fr.id, u.id, u.username, u.favorite_game, fr.created_at
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = $1 AND fr.status = $2 AND u.is_banned = FALSE
		ORDER BY fr.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, types.FriendPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []types.FriendEntry
	for rows.Next() {
		var f types.FriendEntry
		if err := rows.Scan(&f.RequestID, &f.UserID, &f.Username, &f.FavoriteGame, &f.CreatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, f)
	}
	return reqs, rows.Err()
}

// GetBetween returns the relationship row between two users in either
// direction, whatever its status.
func (r *FriendRepository) GetBetween(ctx context.Context, userA, userB int) (types.FriendRequest, error) {
	const query = `
		SELECT id, from_user_id, to_user_id, status, created_at
		FROM friend_requests
		WHERE (from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1)`
	var fr types.FriendRequest
	err := r.db.QueryRowContext(ctx, query, userA, userB).
		Scan(&fr.ID, &fr.FromUserID, &fr.ToUserID, &fr.Status, &fr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.FriendRequest{}, ErrNotFound
		}
		return types.FriendRequest{}, err
	}
	return fr, nil
}

func (r *FriendRepository) Create(ctx context.Context, fromID, toID int) error {
	const query = `INSERT INTO friend_requests (from_user_id, to_user_id, status) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, fromID, toID, types.FriendPending)
	return err
}

// Reopen turns a settled relationship row back into a pending request
// from the given sender.
func (r *FriendRepository) Reopen(ctx context.Context, requestID, fromID, toID int) error {
	const query = `
		UPDATE friend_requests
		SET from_user_id = $1, to_user_id = $2, status = $3, created_at = now(), updated_at = now()
		WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, fromID, toID, types.FriendPending, requestID)
	return err
}

// Accept flips a pending request to accepted; only the recipient may do
// so, enforced in the predicate.
func (r *FriendRepository) Accept(ctx context.Context, requestID, toUserID int) error {
	const query = `
		UPDATE friend_requests SET status = $1, updated_at = now()
		WHERE id = $2 AND to_user_id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, types.FriendAccepted, requestID, toUserID, types.FriendPending)
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

// Decline marks a request declined; only the recipient may do so.
func (r *FriendRepository) Decline(ctx context.Context, requestID, toUserID int) error {
	const query = `
		UPDATE friend_requests SET status = $1, updated_at = now()
		WHERE id = $2 AND to_user_id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, types.FriendDeclined, requestID, toUserID, types.FriendPending)
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
