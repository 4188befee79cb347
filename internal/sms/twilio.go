package sms

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/krishisetu/krishisetu/internal/config"
)

// TwilioSender delivers messages through the Twilio Messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	logger *logrus.Logger
}

func NewTwilioSender(cfg *config.TwilioConfig, logger *logrus.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioSender{
		client: client,
		from:   cfg.FromNumber,
		logger: logger,
	}
}

func (s *TwilioSender) Send(_ context.Context, to, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(NormalizeNumber(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		s.logger.WithError(err).WithField("to", to).Error("Twilio send failed")
		return fmt.Errorf("twilio send failed: %w", err)
	}

	return nil
}
