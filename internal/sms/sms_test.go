package sms

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+919999999999", "+919999999999"},
		{"919999999999", "+919999999999"},
		{" 91 99999 99999 ", "+919999999999"},
		{"+1 555 000 1111", "+15550001111"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeNumber(tt.in), "input %q", tt.in)
	}
}

func TestLogSenderNeverFails(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	sender := NewLogSender(logger)
	assert.NoError(t, sender.Send(context.Background(), "+919999999999", "Your verification code is: 4821. Valid for 10 minutes."))
}
