// Package calendar builds iCalendar reminders for membership card expiration.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Reminder describes an all-day calendar entry
type Reminder struct {
	UID         string
	Summary     string
	Description string
	URL         string
	Date        time.Time
}

// ExpiryReminder returns the reminder sent with a member's card
func ExpiryReminder(memberKey, fullName, cardURL string, expires time.Time) Reminder {
	return Reminder{
		UID:     fmt.Sprintf("%s-%s@clubmontagne.ch", memberKey, expires.Format("20060102")),
		Summary: "Club Montagne membership card expires",
		Description: fmt.Sprintf("The Club Montagne membership card of %s expires today.\n"+
			"Renew it during a rental session at EPFL.\n\nCard: %s", fullName, cardURL),
		URL:  cardURL,
		Date: expires,
	}
}

// GenerateICS generates an iCalendar (.ics) document for a reminder
func GenerateICS(r Reminder) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//Club Montagne//membercards//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	ics.WriteString("BEGIN:VEVENT\r\n")

	ics.WriteString(fmt.Sprintf("UID:%s\r\n", r.UID))

	// DTSTAMP - when this calendar entry was created
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(time.Now())))

	// All-day entry: DTEND is exclusive
	ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", formatICSDate(r.Date)))
	ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", formatICSDate(r.Date.AddDate(0, 0, 1))))

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(r.Summary)))
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(r.Description)))
	if r.URL != "" {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", r.URL))
	}
	ics.WriteString("TRANSP:TRANSPARENT\r\n")

	// Remind one week ahead
	ics.WriteString("BEGIN:VALARM\r\n")
	ics.WriteString("ACTION:DISPLAY\r\n")
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(r.Summary)))
	ics.WriteString("TRIGGER:-P7D\r\n")
	ics.WriteString("END:VALARM\r\n")

	ics.WriteString("END:VEVENT\r\n")
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatICSDate formats a time.Time as an iCalendar date value
func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
