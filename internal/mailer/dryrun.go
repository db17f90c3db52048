package mailer

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DryRunNotifier prints what would be emailed without connecting anywhere
type DryRunNotifier struct {
	out    io.Writer
	sender Sender
	count  int
}

// NewDryRunNotifier creates a new dry-run notifier writing to out (stdout when nil)
func NewDryRunNotifier(out io.Writer, sender Sender) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out, sender: sender}
}

// Notify composes the message and prints a summary of it
func (n *DryRunNotifier) Notify(ctx context.Context, card *Card) error {
	if _, err := n.sender.Compose(card); err != nil {
		return err
	}

	n.count++
	fmt.Fprintf(n.out, "--- Email %d ---\n", n.count)
	fmt.Fprintf(n.out, "From: %s\n", n.sender.From)
	fmt.Fprintf(n.out, "To: %s\n", card.To)
	fmt.Fprintf(n.out, "Subject: %s\n", n.sender.Subject)
	fmt.Fprintf(n.out, "Card: %s\n", card.CardURL)
	fmt.Fprintf(n.out, "QR code: %s (%d bytes)\n", card.ImageName(), len(card.QRCode))
	if card.Calendar != "" {
		fmt.Fprintf(n.out, "Attachment: %s\n", calendarName)
	}
	fmt.Fprintln(n.out)

	return nil
}
