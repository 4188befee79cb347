package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/config"
	"github.com/krishisetu/krishisetu/internal/models"
)

type JWTService struct {
	secretKey     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	logger        *logrus.Logger
}

func NewJWTService(cfg *config.JWTConfig, logger *logrus.Logger) (*JWTService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &JWTService{
		secretKey:     secretKey,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		logger:        logger,
	}, nil
}

type Claims struct {
	Phone string `json:"phone"`
	Type  string `json:"type"`
	JTI   string `json:"jti"`
	jwt.RegisteredClaims
}

// GeneratePair issues an access/refresh pair for a phone number under
// a fresh token family.
func (s *JWTService) GeneratePair(phoneNo string) (*models.TokenPair, string, error) {
	return s.GeneratePairWithFamily(phoneNo, "")
}

// GeneratePairWithFamily issues a pair within an existing token family,
// or a new family when familyID is empty.
func (s *JWTService) GeneratePairWithFamily(phoneNo, familyID string) (*models.TokenPair, string, error) {
	now := time.Now()
	if familyID == "" {
		familyID = uuid.New().String()
	}

	accessTokenString, err := s.sign(phoneNo, "access", now, now.Add(s.accessExpiry))
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		return nil, "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshTokenString, err := s.sign(phoneNo, "refresh", now, now.Add(s.refreshExpiry))
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign refresh token")
		return nil, "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
	}, familyID, nil
}

func (s *JWTService) sign(phoneNo, tokenType string, issuedAt, expiresAt time.Time) (string, error) {
	jti := uuid.New().String()

	claims := &Claims{
		Phone: phoneNo,
		Type:  tokenType,
		JTI:   jti,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   phoneNo,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *JWTService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// RefreshTokens validates a refresh token and issues a new pair within
// the same token family.
func (s *JWTService) RefreshTokens(refreshTokenString, familyID string) (*models.TokenPair, string, error) {
	claims, err := s.VerifyToken(refreshTokenString)
	if err != nil {
		return nil, "", fmt.Errorf("invalid refresh token: %w", err)
	}

	if claims.Type != "refresh" {
		return nil, "", fmt.Errorf("token is not a refresh token")
	}

	return s.GeneratePairWithFamily(claims.Phone, familyID)
}
