// Package mailer delivers membership cards by email.
//
// The Notifier interface has two implementations: SMTPNotifier, which opens
// an authenticated STARTTLS session per card, and DryRunNotifier, which only
// prints what would be sent. Credentials are always supplied by the caller;
// nothing in this package carries a secret.
package mailer
