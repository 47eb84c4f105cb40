package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const generalPurpose = "general"

// Backend stores fixed-window counters and cooldown markers.
type Backend interface {
	// Count returns the current value of a window counter, zero when absent.
	Count(ctx context.Context, key string) (int64, error)
	// Incr increments a window counter, starting its window on the first hit.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	// Mark sets a marker that disappears after ttl.
	Mark(ctx context.Context, key string, ttl time.Duration) error
	// Marked reports whether a marker is still present.
	Marked(ctx context.Context, key string) (bool, error)
}

// Limiter enforces per-IP request budgets and per-key cooldowns.
type Limiter struct {
	backend     Backend
	maxRequests int64
	window      time.Duration
}

func NewLimiter(backend Backend, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		backend:     backend,
		maxRequests: int64(maxRequests),
		window:      window,
	}
}

func ipKey(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func cooldownKey(scope, key string) string {
	return fmt.Sprintf("ratelimit:cooldown:%s:%s", scope, key)
}

// CheckIPRateLimit reports whether ip has used up its general budget.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, generalPurpose)
}

// RecordIPRequest counts one request from ip against the general budget.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, generalPurpose)
}

// CheckIPRateLimitWithPurpose reports whether ip has used up the budget for
// purpose. Each purpose has its own window.
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	if l.maxRequests <= 0 {
		return false, nil
	}
	count, err := l.backend.Count(ctx, ipKey(purpose, ip))
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	return count >= l.maxRequests, nil
}

func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	if _, err := l.backend.Incr(ctx, ipKey(purpose, ip), l.window); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// CheckCooldown reports whether key is still cooling down in scope.
func (l *Limiter) CheckCooldown(ctx context.Context, scope, key string) (bool, error) {
	marked, err := l.backend.Marked(ctx, cooldownKey(scope, key))
	if err != nil {
		return false, fmt.Errorf("failed to check cooldown: %w", err)
	}
	return marked, nil
}

// SetCooldown starts a cooldown for key in scope. A zero ttl is a no-op.
func (l *Limiter) SetCooldown(ctx context.Context, scope, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := l.backend.Mark(ctx, cooldownKey(scope, key), ttl); err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	return nil
}
