// Package otp implements issuance and verification of short-lived
// numeric codes used to prove possession of a phone number.
package otp

import (
	"errors"
	"fmt"
	"time"
)

// Record is one pending verification challenge for a single phone
// number. At most one live record exists per number; a new generate
// request overwrites the prior one.
type Record struct {
	Code      string    `json:"code" dynamodbav:"code"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at"`
	Attempts  int       `json:"attempts" dynamodbav:"attempts"`
	LastSent  time.Time `json:"last_sent" dynamodbav:"last_sent"`
}

var (
	ErrMissingInput     = errors.New("phone number and OTP are required")
	ErrRateLimited      = errors.New("OTP requested too soon")
	ErrDeliveryFailed   = errors.New("failed to deliver OTP")
	ErrNotRequested     = errors.New("no OTP requested for this number")
	ErrExpired          = errors.New("OTP has expired")
	ErrAttemptsExceeded = errors.New("maximum verification attempts exceeded")
	ErrInvalidCode      = errors.New("invalid OTP")
)

// RateLimitedError carries the remaining cooldown so callers can tell
// the user how long to wait. errors.Is(err, ErrRateLimited) matches it.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("OTP requested too soon, retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
