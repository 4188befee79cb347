package repository

import (
	"context"
	"errors"
	"time"

	"github.com/krishisetu/krishisetu/internal/models"
)

var ErrTokenNotFound = errors.New("refresh token not found")

// RefreshTokenStore persists issued refresh tokens by JTI so they can
// be revoked before their JWT expiry.
type RefreshTokenStore interface {
	Store(ctx context.Context, data models.RefreshTokenData) error
	Get(ctx context.Context, jti string) (*models.RefreshTokenData, error)
	Revoke(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func refreshTokenTTL(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl < 0 {
		ttl = 0
	}
	return ttl
}
