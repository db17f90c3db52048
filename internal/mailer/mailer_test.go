package mailer

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func testCard() *Card {
	return &Card{
		To:        "ana.lee@epfl.ch",
		Key:       "Ana_Lee",
		FirstName: "Ana",
		LastName:  "Lee",
		CardURL:   "https://clubmontagne.github.io/members/Ana_Lee",
		QRCode:    []byte("\x89PNG fake image"),
		Expires:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		Valid:     true,
	}
}

func TestRenderBody(t *testing.T) {
	tests := []struct {
		name     string
		valid    bool
		contains []string
	}{
		{
			name:  "valid card",
			valid: true,
			contains: []string{
				"Dear Club Montagne member",
				`src="cid:Ana_Lee.png"`,
				"Your card is valid and expires on 2026.09.30",
				`href="https://clubmontagne.github.io/members/Ana_Lee"`,
				"https://clubmontagne.epfl.ch/carte-membre/",
				"https://clubmontagne.epfl.ch/equipment-fr/",
			},
		},
		{
			name:  "invalid card",
			valid: false,
			contains: []string{
				"<b>not valid yet</b>",
				"CHF 10.- fee",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := testCard()
			card.Valid = tt.valid

			body, err := RenderBody(card)
			if err != nil {
				t.Fatalf("RenderBody() error = %v", err)
			}

			for _, want := range tt.contains {
				if !strings.Contains(body, want) {
					t.Errorf("RenderBody() missing %q", want)
				}
			}
		})
	}
}

func TestRenderBody_EscapesNames(t *testing.T) {
	card := testCard()
	card.FirstName = `<script>alert(1)</script>`

	body, err := RenderBody(card)
	if err != nil {
		t.Fatalf("RenderBody() error = %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Error("RenderBody() did not escape the member name")
	}
}

func TestSender_Compose(t *testing.T) {
	card := testCard()
	card.Calendar = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"

	msg, err := DefaultSender().Compose(card)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	raw := buf.String()

	for _, want := range []string{
		"ana.lee@epfl.ch",
		DefaultFrom,
		"Reply-To:",
		DefaultReplyTo,
		"Subject: Your membership QR code",
		"text/html",
		"image/png",
		"Ana_Lee.png",
		"text/calendar",
		"membership.ics",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSender_ComposeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Card)
	}{
		{"no qr code", func(c *Card) { c.QRCode = nil }},
		{"bad recipient", func(c *Card) { c.To = "not an address" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := testCard()
			tt.mutate(card)

			if _, err := DefaultSender().Compose(card); err == nil {
				t.Error("Compose() expected error, got nil")
			}
		})
	}
}

func TestNewSMTPNotifier(t *testing.T) {
	if _, err := NewSMTPNotifier(SMTPConfig{}, DefaultSender()); err == nil {
		t.Error("NewSMTPNotifier() without credentials expected error, got nil")
	}

	n, err := NewSMTPNotifier(SMTPConfig{Username: "club", Password: "secret"}, DefaultSender())
	if err != nil {
		t.Fatalf("NewSMTPNotifier() error = %v", err)
	}
	if n.config.Host != DefaultHost || n.config.Port != DefaultPort {
		t.Errorf("relay = %s:%d, want %s:%d", n.config.Host, n.config.Port, DefaultHost, DefaultPort)
	}
	if n.config.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", n.config.Timeout, DefaultTimeout)
	}
}

func TestSMTPNotifier_NotifyUnreachable(t *testing.T) {
	// Reserve a port and release it so nothing listens there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	n, err := NewSMTPNotifier(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "club",
		Password: "secret",
		Timeout:  time.Second,
	}, DefaultSender())
	if err != nil {
		t.Fatalf("NewSMTPNotifier() error = %v", err)
	}

	err = n.Notify(context.Background(), testCard())
	if err == nil {
		t.Fatal("Notify() expected error for unreachable relay, got nil")
	}
	if !strings.Contains(err.Error(), "ana.lee@epfl.ch") {
		t.Errorf("Notify() error = %q, should name the recipient", err)
	}
}

func TestDryRunNotifier(t *testing.T) {
	var out bytes.Buffer
	notifier := NewDryRunNotifier(&out, DefaultSender())

	if err := notifier.Notify(context.Background(), testCard()); err != nil {
		t.Fatalf("DryRunNotifier.Notify() error = %v, want nil", err)
	}

	for _, want := range []string{
		"--- Email 1 ---",
		"To: ana.lee@epfl.ch",
		"Subject: Your membership QR code",
		"QR code: Ana_Lee.png",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("dry-run output missing %q:\n%s", want, out.String())
		}
	}

	card := testCard()
	card.QRCode = nil
	if err := notifier.Notify(context.Background(), card); err == nil {
		t.Error("DryRunNotifier.Notify() without qr code expected error")
	}
}
