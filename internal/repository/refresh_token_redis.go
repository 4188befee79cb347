package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/models"
)

// RedisRefreshTokenStore keys tokens as refresh_token:<jti> with a TTL
// matching the JWT expiry, plus a revoked_token:<jti> marker for fast
// revocation checks.
type RedisRefreshTokenStore struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisRefreshTokenStore(client *redis.Client, logger *logrus.Logger) *RedisRefreshTokenStore {
	return &RedisRefreshTokenStore{
		client: client,
		logger: logger,
	}
}

func (s *RedisRefreshTokenStore) Store(ctx context.Context, data models.RefreshTokenData) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	key := fmt.Sprintf("refresh_token:%s", data.JTI)
	if err := s.client.Set(ctx, key, dataJSON, refreshTokenTTL(data.ExpiresAt)).Err(); err != nil {
		s.logger.WithError(err).Error("Failed to store refresh token")
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

func (s *RedisRefreshTokenStore) Get(ctx context.Context, jti string) (*models.RefreshTokenData, error) {
	key := fmt.Sprintf("refresh_token:%s", jti)

	dataJSON, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	var data models.RefreshTokenData
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token data: %w", err)
	}

	return &data, nil
}

func (s *RedisRefreshTokenStore) Revoke(ctx context.Context, jti string) error {
	data, err := s.Get(ctx, jti)
	if err != nil {
		return err
	}

	data.Revoked = true
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	ttl := refreshTokenTTL(data.ExpiresAt)
	key := fmt.Sprintf("refresh_token:%s", jti)
	if err := s.client.Set(ctx, key, dataJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	// Separate marker so IsRevoked is a single EXISTS.
	revokedKey := fmt.Sprintf("revoked_token:%s", jti)
	if err := s.client.Set(ctx, revokedKey, "1", ttl).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to set revoked marker")
	}

	return nil
}

func (s *RedisRefreshTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revokedKey := fmt.Sprintf("revoked_token:%s", jti)
	exists, err := s.client.Exists(ctx, revokedKey).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

var _ RefreshTokenStore = (*RedisRefreshTokenStore)(nil)
