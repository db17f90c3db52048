package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/clubmontagne/membercards/internal/expiry"
)

const (
	DefaultFrom    = "clubmontagneepfl@gmail.com"
	DefaultReplyTo = "card@clubmontagne.ch"
	DefaultSubject = "Your membership QR code"

	calendarName = "membership.ics"
)

// Sender holds the envelope settings shared by every card
type Sender struct {
	From    string
	ReplyTo string
	Subject string
}

// DefaultSender returns the club's sender settings
func DefaultSender() Sender {
	return Sender{
		From:    DefaultFrom,
		ReplyTo: DefaultReplyTo,
		Subject: DefaultSubject,
	}
}

var bodyTemplate = template.Must(template.New("card").Parse(`<p>
    Dear Club Montagne member,
</p>
<p>
    Please find attached the QR-Code linked to your Club Montagne membership card.
</p>
<p>
    <img src="cid:{{.ImageName}}" alt="Membership QR code for {{.Name}}" width="250">
</p>
<p>
    Keep it safely stored in your smartphone, and get it ready to be scanned anytime you want to use it with our partners. Attention please: our partners are free to decline your request of benefiting from your advantages unless you show your QR-Code*, make sure you have it with you before asking the people to take advantage of it!
</p>
<p>
    Your card is {{if .Valid}}valid{{else}}<b>not valid yet</b>{{end}} and expires on {{.Expires}}.
    You can check it at any time on <a href="{{.CardURL}}" target="_blank">your member page</a>.
</p>
<p>
    *If you are not a Bachelor nor a Master student at EPFL, you need to pay a CHF 10.- fee to activate the card. If you didn't pay yet, the card is marked as not valid. Activate the card by reaching us during rental sessions in EPFL!
</p>
<p>
    <a href="https://clubmontagne.epfl.ch/" target="_blank">Click here for more information about the Club Montagne.</a>
</p>
<p>
    <a href="https://clubmontagne.epfl.ch/carte-membre/" target="_blank">Click here for more information about the Membership Card and the advantages you get with it.</a>
</p>
<p>
    <a href="https://clubmontagne.epfl.ch/equipment-fr/" target="_blank">Click here for more information about the Rental sessions.</a>
</p>
<p>
    Let the force be with you,
</p>
<p>
    Club Montagne
</p>
`))

type bodyData struct {
	Name      string
	ImageName string
	CardURL   string
	Expires   string
	Valid     bool
}

// RenderBody returns the HTML body for a card
func RenderBody(card *Card) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, bodyData{
		Name:      strings.TrimSpace(card.FirstName + " " + card.LastName),
		ImageName: card.ImageName(),
		CardURL:   card.CardURL,
		Expires:   expiry.Format(card.Expires),
		Valid:     card.Valid,
	})
	if err != nil {
		return "", fmt.Errorf("rendering email body: %w", err)
	}
	return buf.String(), nil
}

// Compose builds the multipart message for a card
func (s Sender) Compose(card *Card) (*mail.Msg, error) {
	if len(card.QRCode) == 0 {
		return nil, fmt.Errorf("card for %s has no qr code", card.Key)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.From); err != nil {
		return nil, fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(card.To); err != nil {
		return nil, fmt.Errorf("setting recipient: %w", err)
	}
	if s.ReplyTo != "" {
		if err := msg.ReplyTo(s.ReplyTo); err != nil {
			return nil, fmt.Errorf("setting reply-to: %w", err)
		}
	}
	msg.Subject(s.Subject)

	body, err := RenderBody(card)
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(mail.TypeTextHTML, body)

	err = msg.EmbedReader(card.ImageName(), bytes.NewReader(card.QRCode),
		mail.WithFileContentType(mail.ContentType("image/png")))
	if err != nil {
		return nil, fmt.Errorf("embedding qr code: %w", err)
	}

	if card.Calendar != "" {
		err = msg.AttachReader(calendarName, strings.NewReader(card.Calendar),
			mail.WithFileContentType(mail.ContentType("text/calendar")))
		if err != nil {
			return nil, fmt.Errorf("attaching calendar: %w", err)
		}
	}

	return msg, nil
}
