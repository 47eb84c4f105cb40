package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// revokedMarkerFallbackTTL is used when the token key has no TTL left to copy.
const revokedMarkerFallbackTTL = 7 * 24 * time.Hour

// RedisRepository keeps refresh tokens in Redis. Each token is a hash keyed
// by its SHA-256, expiring with the token; each account has a set of its
// token hashes so sign-out-everywhere can find them.
type RedisRepository struct {
	client *redis.Client
}

var _ RefreshTokenRepository = (*RedisRepository)(nil)

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func tokenKey(tokenHash string) string {
	return fmt.Sprintf("anonify:refresh:%s", tokenHash)
}

func revokedKey(tokenHash string) string {
	return fmt.Sprintf("anonify:refresh:revoked:%s", tokenHash)
}

func accountTokensKey(userID uuid.UUID) string {
	return fmt.Sprintf("anonify:account_tokens:%s", userID)
}

func (r *RedisRepository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	tokenHash := hashToken(token)
	key := tokenKey(tokenHash)
	setKey := accountTokensKey(userID)

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token expiration time is in the past")
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    userID.String(),
			"expires_at": expiresAt.Unix(),
			"created_at": time.Now().Unix(),
		})
		pipe.Expire(ctx, key, ttl)
		pipe.SAdd(ctx, setKey, tokenHash)
		pipe.Expire(ctx, setKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *RedisRepository) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	tokenHash := hashToken(token)

	revoked, err := r.client.Exists(ctx, revokedKey(tokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked > 0 {
		return nil, ErrRefreshTokenRevoked
	}

	data, err := r.client.HGetAll(ctx, tokenKey(tokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrRefreshTokenNotFound
	}

	userID, err := uuid.Parse(data["user_id"])
	if err != nil {
		return nil, ErrInvalidToken
	}
	expiresAt, err := parseUnix(data["expires_at"])
	if err != nil {
		return nil, ErrInvalidToken
	}
	if time.Now().After(expiresAt) {
		return nil, ErrRefreshTokenExpired
	}
	createdAt, _ := parseUnix(data["created_at"])

	return &RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}, nil
}

// RevokeRefreshToken leaves a revoked marker that outlives the token.
func (r *RedisRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	tokenHash := hashToken(token)

	ttl, err := r.client.TTL(ctx, tokenKey(tokenHash)).Result()
	if err != nil {
		return fmt.Errorf("failed to get token TTL: %w", err)
	}
	// TTL reports -2 for a missing key
	if ttl == -2 {
		return ErrRefreshTokenNotFound
	}

	if err := r.client.Set(ctx, revokedKey(tokenHash), "1", markerTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RedisRepository) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	setKey := accountTokensKey(userID)

	tokenHashes, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get account tokens: %w", err)
	}
	if len(tokenHashes) == 0 {
		return nil
	}

	ttls := make([]*redis.DurationCmd, len(tokenHashes))
	if _, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, h := range tokenHashes {
			ttls[i] = pipe.TTL(ctx, tokenKey(h))
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to read token TTLs: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, h := range tokenHashes {
			pipe.Set(ctx, revokedKey(h), "1", markerTTL(ttls[i].Val()))
		}
		pipe.Del(ctx, setKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to revoke all account tokens: %w", err)
	}
	return nil
}

func markerTTL(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return revokedMarkerFallbackTTL
}

func parseUnix(v string) (time.Time, error) {
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0), nil
}
