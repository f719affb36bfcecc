// utils/email.go
package utils

import (
	"context"
	"fmt"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	MailProviderNone     = "none"
	MailProviderPostmark = "postmark"
	MailProviderSendGrid = "sendgrid"
)

// EmailMessage is a single outgoing email
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers transactional email
//
//go:generate mockgen -destination=../notify/mock_mailer_test.go -package=notify go-storefront/utils Mailer
type Mailer interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// MailerConfig selects and configures a Mailer.
type MailerConfig struct {
	Provider         string
	Sender           string
	PostmarkAPIToken string
	SendGridAPIKey   string
}

// NewMailer builds the Mailer named by cfg.Provider.
func NewMailer(cfg MailerConfig) (Mailer, error) {
	switch cfg.Provider {
	case "", MailProviderNone:
		return NopMailer{}, nil
	case MailProviderPostmark:
		if cfg.PostmarkAPIToken == "" {
			return nil, fmt.Errorf("postmark api token is not set")
		}
		return NewPostmarkMailer(cfg.PostmarkAPIToken, cfg.Sender), nil
	case MailProviderSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid api key is not set")
		}
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.Sender), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// NopMailer drops every message.
type NopMailer struct{}

func (NopMailer) SendEmail(context.Context, EmailMessage) error { return nil }

// PostmarkMailer handles sending emails using Postmark
type PostmarkMailer struct {
	client *postmark.Client
	sender string
}

func NewPostmarkMailer(apiToken, sender string) *PostmarkMailer {
	return &PostmarkMailer{
		client: postmark.NewClient(apiToken, ""),
		sender: sender,
	}
}

func (pm *PostmarkMailer) SendEmail(_ context.Context, msg EmailMessage) error {
	_, err := pm.client.SendEmail(postmark.Email{
		From:     pm.sender,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTML,
		TextBody: msg.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendGridMailer handles sending emails using SendGrid
type SendGridMailer struct {
	client *sendgrid.Client
	sender string
}

func NewSendGridMailer(apiKey, sender string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		sender: sender,
	}
}

func (sm *SendGridMailer) SendEmail(_ context.Context, msg EmailMessage) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("Storefront", sm.sender),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Text,
		msg.HTML,
	)
	resp, err := sm.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
