package services

import "context"

// RateLimitRepository is the storage contract behind the limiter: one
// atomic fixed-window check-and-increment per call.
type RateLimitRepository interface {
	CheckAndConsume(ctx context.Context, key string, limit, windowSeconds int) (bool, error)
}

// RateLimiter applies per-action quotas keyed by caller identity or IP.
type RateLimiter struct {
	repo RateLimitRepository
}

func NewRateLimiter(repo RateLimitRepository) *RateLimiter {
	return &RateLimiter{repo: repo}
}

// Allow consumes one slot for the key and reports whether the caller is
// still inside the quota. On storage failure the request is allowed and
// the error surfaced to the caller for logging (fail open).
func (l *RateLimiter) Allow(ctx context.Context, key string, limit, windowSeconds int) (bool, error) {
	if l == nil || l.repo == nil {
		return true, nil
	}
	allowed, err := l.repo.CheckAndConsume(ctx, key, limit, windowSeconds)
	if err != nil {
		return true, err
	}
	return allowed, nil
}
