// Package config loads mail and ledger settings from environment variables.
//
// Secrets such as the SMTP password are only ever read from the environment;
// command-line flags cover everything that is not sensitive.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/clubmontagne/membercards/internal/mailer"
)

// Config holds the environment-provided settings.
type Config struct {
	// SMTPHost is the mail relay. Defaults to smtp.gmail.com.
	SMTPHost string

	// SMTPPort is the submission port. Defaults to 587.
	SMTPPort int

	// SMTPUsername and SMTPPassword authenticate against the relay.
	// Required unless email is disabled.
	SMTPUsername string
	SMTPPassword string

	// MailFrom and MailReplyTo are the envelope addresses of every card.
	MailFrom    string
	MailReplyTo string

	// LedgerKey encrypts recipient addresses in the ledger. Optional.
	LedgerKey string

	// LogLevel controls the minimum log level. Defaults to "info".
	LogLevel string
}

// Load reads configuration from environment variables.
// When requireSMTP is set, missing credentials are reported as an error.
func Load(requireSMTP bool) (Config, error) {
	cfg := Config{
		SMTPHost:     getEnv("SMTP_HOST", mailer.DefaultHost),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", mailer.DefaultFrom),
		MailReplyTo:  getEnv("MAIL_REPLY_TO", mailer.DefaultReplyTo),
		LedgerKey:    os.Getenv("LEDGER_KEY"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	port, err := strconv.Atoi(getEnv("SMTP_PORT", strconv.Itoa(mailer.DefaultPort)))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid SMTP_PORT %q", os.Getenv("SMTP_PORT"))
	}
	cfg.SMTPPort = port

	if requireSMTP {
		var missing []string
		if cfg.SMTPUsername == "" {
			missing = append(missing, "SMTP_USERNAME")
		}
		if cfg.SMTPPassword == "" {
			missing = append(missing, "SMTP_PASSWORD")
		}
		if len(missing) > 0 {
			return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
		}
	}

	return cfg, nil
}

// Sender returns the envelope settings for outgoing cards
func (c Config) Sender() mailer.Sender {
	return mailer.Sender{
		From:    c.MailFrom,
		ReplyTo: c.MailReplyTo,
		Subject: mailer.DefaultSubject,
	}
}

// SMTP returns the relay settings
func (c Config) SMTP() mailer.SMTPConfig {
	return mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
	}
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
