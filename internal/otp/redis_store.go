package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisStore keeps records in Redis under otp:<phoneNo> with a native
// TTL, so expired records are evicted without a sweep and state is
// shared across instances.
type RedisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisStore(client *redis.Client, logger *logrus.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger,
	}
}

func (s *RedisStore) Get(ctx context.Context, phoneNo string) (*Record, error) {
	dataJSON, err := s.client.Get(ctx, s.key(phoneNo)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to get OTP from Redis")
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(dataJSON), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OTP record: %w", err)
	}

	return &rec, nil
}

func (s *RedisStore) Set(ctx context.Context, phoneNo string, rec *Record) error {
	dataJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP record: %w", err)
	}

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := s.client.Set(ctx, s.key(phoneNo), dataJSON, ttl).Err(); err != nil {
		s.logger.WithError(err).Error("Failed to store OTP in Redis")
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, phoneNo string) error {
	if err := s.client.Del(ctx, s.key(phoneNo)).Err(); err != nil {
		return fmt.Errorf("failed to delete OTP: %w", err)
	}
	return nil
}

func (s *RedisStore) key(phoneNo string) string {
	return fmt.Sprintf("otp:%s", phoneNo)
}
