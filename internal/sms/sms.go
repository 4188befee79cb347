// Package sms abstracts the outbound SMS transport.
package sms

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Sender delivers a text message to a phone number. Implementations
// must treat each call as a single delivery attempt; retries are the
// caller's decision.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// LogSender writes messages to the log instead of sending them. Used
// in development when Twilio credentials are not configured.
type LogSender struct {
	logger *logrus.Logger
}

func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) error {
	s.logger.WithFields(logrus.Fields{
		"to":   to,
		"body": body,
	}).Info("SMS (logged, not sent)")
	return nil
}

// NormalizeNumber strips whitespace and ensures a leading + so numbers
// submitted without a country-code prefix still reach the carrier API
// in E.164 form.
func NormalizeNumber(to string) string {
	to = strings.Join(strings.Fields(to), "")
	if to != "" && !strings.HasPrefix(to, "+") {
		to = "+" + to
	}
	return to
}
