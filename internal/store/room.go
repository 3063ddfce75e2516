package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/frikords/apiserver/types"
)

// RoomRepository handles rooms, memberships and invite codes.
type RoomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomListColumns = `
	r.id, r.name, r.description, r.created_at, u.username,
	(SELECT COUNT(*) FROM room_members rm WHERE rm.room_id = r.id)`

// ListPublic returns the newest public rooms visible to anonymous callers.
func (r *RoomRepository) ListPublic(ctx context.Context, limit int) ([]types.Room, error) {
	const query = `
		SELECT ` + roomListColumns + `
		FROM rooms r
		JOIN users u ON u.id = r.owner_id
		WHERE r.is_public = TRUE
		ORDER BY r.created_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return r.scanList(rows)
}

// ListForMember returns the rooms a user belongs to, newest first.
func (r *RoomRepository) ListForMember(ctx context.Context, userID, limit int) ([]types.Room, error) {
	const query = `
		SELECT ` + roomListColumns + `
		FROM rooms r
		JOIN users u ON u.id = r.owner_id
		JOIN room_members me ON me.room_id = r.id AND me.user_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return r.scanList(rows)
}

func (r *RoomRepository) scanList(rows *sql.Rows) ([]types.Room, error) {
	defer rows.Close()
	var rooms []types.Room
	for rows.Next() {
		var room types.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Description, &room.CreatedAt, &room.OwnerName, &room.MemberCount); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// Create inserts a room and its owner's membership in one transaction.
func (r *RoomRepository) Create(ctx context.Context, room types.Room) (types.Room, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Room{}, err
	}
	defer tx.Rollback()

	const insertRoom = `
		INSERT INTO rooms (name, description, owner_id, is_public)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	if err := tx.QueryRowContext(ctx, insertRoom, room.Name, room.Description, room.OwnerID, room.IsPublic).
		Scan(&room.ID, &room.CreatedAt); err != nil {
		return types.Room{}, err
	}

	const insertMember = `INSERT INTO room_members (room_id, user_id) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, insertMember, room.ID, room.OwnerID); err != nil {
		return types.Room{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Room{}, err
	}
	return room, nil
}

// OwnerID returns the owner of a room.
func (r *RoomRepository) OwnerID(ctx context.Context, roomID int) (int, error) {
	const query = `SELECT owner_id FROM rooms WHERE id = $1`
	var ownerID int
	err := r.db.QueryRowContext(ctx, query, roomID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return ownerID, nil
}

// IsMember reports whether the user belongs to the room.
func (r *RoomRepository) IsMember(ctx context.Context, roomID, userID int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)`
	var member bool
	if err := r.db.QueryRowContext(ctx, query, roomID, userID).Scan(&member); err != nil {
		return false, err
	}
	return member, nil
}

// AddMember inserts a membership; joining an already-joined room is a
// no-op reported through the bool.
func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID int) (added bool, err error) {
	const query = `
		INSERT INTO room_members (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (room_id, user_id) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, roomID, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreateInvite stores a freshly minted invite code for a room.
func (r *RoomRepository) CreateInvite(ctx context.Context, code string, roomID, createdBy int) error {
	const query = `INSERT INTO invites (code, room_id, created_by) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, code, roomID, createdBy)
	return err
}

// GetInvite resolves an invite code together with its room name.
func (r *RoomRepository) GetInvite(ctx context.Context, code string) (types.Invite, error) {
	const query = `
		SELECT i.code, i.room_id, i.created_by, i.uses,
			COALESCE(i.max_uses, 0), COALESCE(i.expires_at, 'epoch'::timestamptz), r.name
		FROM invites i
		JOIN rooms r ON r.id = i.room_id
		WHERE i.code = $1`
	var inv types.Invite
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&inv.Code, &inv.RoomID, &inv.CreatedBy, &inv.Uses, &inv.MaxUses, &inv.ExpiresAt, &inv.RoomName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Invite{}, ErrNotFound
		}
		return types.Invite{}, err
	}
	if inv.ExpiresAt.Unix() == 0 {
		inv.ExpiresAt = time.Time{}
	}
	return inv, nil
}

// IncrementInviteUses bumps the use counter after a successful join.
func (r *RoomRepository) IncrementInviteUses(ctx context.Context, code string) error {
	const query = `UPDATE invites SET uses = uses + 1 WHERE code = $1`
	_, err := r.db.ExecContext(ctx, query, code)
	return err
}

// CountRooms returns the total number of rooms.
func (r *RoomRepository) CountRooms(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM rooms`
	var count int
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
