package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const (
	DefaultHost    = "smtp.gmail.com"
	DefaultPort    = 587
	DefaultTimeout = 30 * time.Second
)

// SMTPConfig configures the mail relay
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPNotifier emails cards through an authenticated STARTTLS relay
type SMTPNotifier struct {
	config SMTPConfig
	sender Sender
}

// NewSMTPNotifier creates an SMTP notifier. Username and password are required.
func NewSMTPNotifier(config SMTPConfig, sender Sender) (*SMTPNotifier, error) {
	if config.Username == "" || config.Password == "" {
		return nil, fmt.Errorf("missing SMTP credentials")
	}
	if config.Host == "" {
		config.Host = DefaultHost
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &SMTPNotifier{config: config, sender: sender}, nil
}

// Notify sends one card over a fresh session; the connection is closed afterwards
func (n *SMTPNotifier) Notify(ctx context.Context, card *Card) error {
	msg, err := n.sender.Compose(card)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.config.Host,
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithPort(n.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.config.Username),
		mail.WithPassword(n.config.Password),
		mail.WithTimeout(n.config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending card to %s: %w", card.To, err)
	}

	return nil
}
