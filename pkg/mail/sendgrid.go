package mail

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/printloft/storefront/pkg/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	ErrNoAPIKey    = errors.New("mail: sendgrid api key is empty")
	ErrNoSender    = errors.New("mail: from address is empty")
	ErrNoRecipient = errors.New("mail: to address is empty")
)

// Message is a single outgoing mail
type Message struct {
	From     string
	FromName string
	To       string
	ToName   string
	Subject  string
	Body     string
}

// Sender delivers a Message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridClient delivers mail through the SendGrid v3 API
type SendGridClient struct {
	apiKey string
}

// NewSendGridClient creates a client for apiKey
func NewSendGridClient(apiKey string) *SendGridClient {
	return &SendGridClient{apiKey: apiKey}
}

// Send delivers msg through the SendGrid v3 API. Any status of 400 or above is an error.
func (c *SendGridClient) Send(ctx context.Context, msg Message) error {
	if err := validate(c.apiKey, msg); err != nil {
		return err
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(msg.FromName, msg.From),
		msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(msg.Body)),
	)

	client := sendgrid.NewSendClient(c.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	logger := log.WithComponent("mail")
	logger.Debug().
		Int("status", response.StatusCode).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Mail sent")
	return nil
}

func validate(apiKey string, msg Message) error {
	switch {
	case apiKey == "":
		return ErrNoAPIKey
	case msg.From == "":
		return ErrNoSender
	case msg.To == "":
		return ErrNoRecipient
	}
	return nil
}
