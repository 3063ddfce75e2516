package store

import (
	"context"
	"database/sql"

	"github.com/frikords/apiserver/types"
)

// AuditRepository appends and reads security/error log entries.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry types.AuditEntry) error {
	const query = `
		INSERT INTO audit_logs (level, source, message, details, ip, user_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0))`
	_, err := r.db.ExecContext(ctx, query, entry.Level, entry.Source, entry.Message, entry.Details, entry.IP, entry.UserID)
	return err
}

// Tail returns the newest entries, optionally filtered by level.
func (r *AuditRepository) Tail(ctx context.Context, level string, limit int) ([]types.AuditEntry, error) {
	const query = `
		SELECT id, level, source, message, details, ip, COALESCE(user_id, 0), created_at
		FROM audit_logs
		WHERE ($1 = '' OR level = $1)
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, level, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []types.AuditEntry
	for rows.Next() {
		var e types.AuditEntry
		if err := rows.Scan(&e.ID, &e.Level, &e.Source, &e.Message, &e.Details, &e.IP, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountRecent returns how many error-level entries landed in the last
// 24 hours.
func (r *AuditRepository) CountRecent(ctx context.Context) (int, error) {
	const query = `
		SELECT COUNT(*) FROM audit_logs
		WHERE level = 'error' AND created_at > now() - interval '24 hours'`
	var count int
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
