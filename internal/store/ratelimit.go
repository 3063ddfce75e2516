package store

import (
	"context"
	"database/sql"
)

// RateLimitRepository maintains fixed-window counters shared by every
// concurrent execution of the API.
type RateLimitRepository struct {
	db *sql.DB
}

func NewRateLimitRepository(db *sql.DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// CheckAndConsume applies fixed-window limiting for the key: the counter
// resets to 1 when the window has elapsed and increments otherwise, in a
// single upsert so concurrent requests cannot both slip under the limit.
// The counter keeps counting past the limit inside a window; window_start
// only moves on rollover, so denied calls never extend the window.
func (r *RateLimitRepository) CheckAndConsume(ctx context.Context, key string, limit, windowSeconds int) (bool, error) {
	const query = `
		INSERT INTO rate_limits (key, count, window_start)
		VALUES ($1, 1, now())
		ON CONFLICT (key) DO UPDATE SET
			count = CASE
				WHEN now() - rate_limits.window_start > $2 * interval '1 second' THEN 1
				ELSE rate_limits.count + 1
			END,
			window_start = CASE
				WHEN now() - rate_limits.window_start > $2 * interval '1 second' THEN now()
				ELSE rate_limits.window_start
			END
		RETURNING count`
	var count int
	if err := r.db.QueryRowContext(ctx, query, key, windowSeconds).Scan(&count); err != nil {
		return false, err
	}
	return count <= limit, nil
}
