package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/config"
	"github.com/krishisetu/krishisetu/internal/sms"
)

// Service issues and verifies one-time passwords. Generation enforces
// a resend cooldown; verification enforces expiry and an attempt cap.
type Service struct {
	store  Store
	sender sms.Sender
	cfg    *config.OTPConfig
	logger *logrus.Logger
	now    func() time.Time
}

func NewService(store Store, sender sms.Sender, cfg *config.OTPConfig, logger *logrus.Logger) *Service {
	return &Service{
		store:  store,
		sender: sender,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Generate creates a fresh code for phoneNo, stores it (overwriting any
// prior record for the number) and dispatches it via SMS. It returns
// the code so callers may log it in development.
//
// If the SMS send fails, the freshly stored record is deleted before
// returning ErrDeliveryFailed: a code the user never received must not
// sit behind the resend cooldown.
func (s *Service) Generate(ctx context.Context, phoneNo string) (string, error) {
	phoneNo = strings.TrimSpace(phoneNo)
	if phoneNo == "" {
		return "", ErrMissingInput
	}

	now := s.now()

	prev, err := s.store.Get(ctx, phoneNo)
	if err != nil {
		return "", err
	}
	if prev != nil {
		if wait := s.cfg.ResendCooldown - now.Sub(prev.LastSent); wait > 0 {
			return "", &RateLimitedError{RetryAfter: wait}
		}
	}

	code, err := generateCode(s.cfg.Length)
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	rec := &Record{
		Code:      code,
		ExpiresAt: now.Add(s.cfg.Expiry),
		Attempts:  0,
		LastSent:  now,
	}

	if err := s.store.Set(ctx, phoneNo, rec); err != nil {
		return "", err
	}

	body := fmt.Sprintf("Your verification code is: %s. Valid for %d minutes.", code, int(s.cfg.Expiry.Minutes()))
	if err := s.sender.Send(ctx, phoneNo, body); err != nil {
		s.logger.WithError(err).WithField("phone", phoneNo).Error("Failed to send OTP")
		if delErr := s.store.Delete(ctx, phoneNo); delErr != nil {
			s.logger.WithError(delErr).Warn("Failed to roll back undelivered OTP")
		}
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.logger.WithField("phone", phoneNo).Info("OTP sent")
	return code, nil
}

// Verify checks code against the stored record for phoneNo. Checks run
// in order: existence, expiry, attempt cap, code equality. Expired and
// exhausted records are purged on detection; a failed comparison
// increments the attempt counter in place; success deletes the record,
// so a code is never usable twice.
func (s *Service) Verify(ctx context.Context, phoneNo, code string) error {
	phoneNo = strings.TrimSpace(phoneNo)
	code = strings.TrimSpace(code)
	if phoneNo == "" || code == "" {
		return ErrMissingInput
	}

	rec, err := s.store.Get(ctx, phoneNo)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotRequested
	}

	if s.now().After(rec.ExpiresAt) {
		if err := s.store.Delete(ctx, phoneNo); err != nil {
			s.logger.WithError(err).Warn("Failed to purge expired OTP")
		}
		return ErrExpired
	}

	if rec.Attempts >= s.cfg.MaxAttempts {
		if err := s.store.Delete(ctx, phoneNo); err != nil {
			s.logger.WithError(err).Warn("Failed to purge exhausted OTP")
		}
		return ErrAttemptsExceeded
	}

	if rec.Code != code {
		rec.Attempts++
		if err := s.store.Set(ctx, phoneNo, rec); err != nil {
			return err
		}
		return ErrInvalidCode
	}

	if err := s.store.Delete(ctx, phoneNo); err != nil {
		return err
	}

	s.logger.WithField("phone", phoneNo).Info("OTP verified")
	return nil
}

// generateCode returns a numeric code of the given length with a
// non-zero leading digit, e.g. 1000-9999 for length 4.
func generateCode(length int) (string, error) {
	lo := int64(1)
	for i := 1; i < length; i++ {
		lo *= 10
	}

	n, err := rand.Int(rand.Reader, big.NewInt(lo*9))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", lo+n.Int64()), nil
}
