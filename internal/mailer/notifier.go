package mailer

import (
	"context"
	"time"
)

// Card is everything needed to email one member their card
type Card struct {
	To        string
	Key       string
	FirstName string
	LastName  string
	CardURL   string
	QRCode    []byte // PNG
	Expires   time.Time
	Valid     bool
	Calendar  string // optional iCalendar attachment
}

// ImageName is the embedded QR code part name, also used as its Content-ID
func (c *Card) ImageName() string {
	return c.Key + ".png"
}

// Notifier defines the interface for delivering membership cards
type Notifier interface {
	// Notify sends the card to card.To
	Notify(ctx context.Context, card *Card) error
}
