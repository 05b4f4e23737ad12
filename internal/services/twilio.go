package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioService sends SMS and WhatsApp messages.
type TwilioService struct {
	client *twilio.RestClient
	from   string // E.164 sender number, without the whatsapp: prefix
	logger *zap.Logger
}

// NewTwilioService creates a Twilio client from credentials.
func NewTwilioService(accountSID, authToken, from string, logger *zap.Logger) (*TwilioService, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioService{
		client: client,
		from:   strings.TrimPrefix(from, "whatsapp:"),
		logger: logger,
	}, nil
}

// SendSMS sends a plain SMS.
func (t *TwilioService) SendSMS(to, message string) error {
	return t.send(t.from, to, message)
}

// SendWhatsAppMessage sends a WhatsApp session message.
func (t *TwilioService) SendWhatsAppMessage(to, message string) error {
	return t.send("whatsapp:"+t.from, "whatsapp:"+to, message)
}

func (t *TwilioService) send(from, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		t.logger.Warn("twilio send failed", zap.String("to", to), zap.Error(err))
		return err
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.logger.Info("twilio message sent", zap.String("to", to), zap.String("sid", sid))
	return nil
}

// SMSNotifier adapts the service to Notifier for the sms channel.
func (t *TwilioService) SMSNotifier() Notifier {
	return NotifierFunc(func(_ context.Context, to, _, body string) error {
		return t.SendSMS(to, body)
	})
}

// WhatsAppNotifier adapts the service to Notifier for the whatsapp channel.
func (t *TwilioService) WhatsAppNotifier() Notifier {
	return NotifierFunc(func(_ context.Context, to, _, body string) error {
		return t.SendWhatsAppMessage(to, body)
	})
}
