package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a single-process RefreshTokenRepository used when
// Redis is disabled.
type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

var _ RefreshTokenRepository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]*RefreshToken)}
}

func (r *MemoryRepository) StoreRefreshToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := hashToken(token)
	r.tokens[h] = &RefreshToken{
		UserID:    userID,
		TokenHash: h,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *MemoryRepository) GetRefreshToken(_ context.Context, token string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[hashToken(token)]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	if rt.IsRevoked() {
		return nil, ErrRefreshTokenRevoked
	}
	if rt.IsExpired() {
		return nil, ErrRefreshTokenExpired
	}
	c := *rt
	return &c, nil
}

func (r *MemoryRepository) RevokeRefreshToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[hashToken(token)]
	if !ok {
		return ErrRefreshTokenNotFound
	}
	now := time.Now()
	rt.RevokedAt = &now
	return nil
}

func (r *MemoryRepository) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for h, rt := range r.tokens {
		if rt.UserID != userID {
			continue
		}
		if rt.IsExpired() {
			delete(r.tokens, h)
			continue
		}
		rt.RevokedAt = &now
	}
	return nil
}
