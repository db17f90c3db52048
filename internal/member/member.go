package member

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// StudentStatus is the roster status verified through the profile page.
	// Every other status is verified through the payment column.
	StudentStatus = "Bachelor/Master student"

	// MissingValue is how spreadsheet exports spell an empty cell.
	MissingValue = "nan"

	// DefaultBaseURL is where the static site publishes member pages.
	DefaultBaseURL = "https://clubmontagne.github.io/members/"
)

// ErrUnsafeKey is returned for a member key that cannot be used as a file name
var ErrUnsafeKey = errors.New("member name cannot be used as a file name")

// Member represents one roster row
type Member struct {
	FirstName   string `csv:"First name" json:"first_name"`
	LastName    string `csv:"Last name" json:"last_name"`
	Email       string `csv:"Email Address" json:"email"`
	Status      string `csv:"Status" json:"status"`
	Payment     string `csv:"Payment" json:"payment,omitempty"`
	ProfileLink string `csv:"EPFL personal page link" json:"profile_link,omitempty"`
}

// Key returns the identifier used for file names and the card URL
func (m *Member) Key() string {
	return m.FirstName + "_" + m.LastName
}

// FullName returns "First Last"
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// IsStudent reports whether the member claims student status
func (m *Member) IsStudent() bool {
	return m.Status == StudentStatus
}

// HasProfileLink reports whether the profile link cell holds a value
func (m *Member) HasProfileLink() bool {
	return !IsMissing(m.ProfileLink)
}

// HasEmail reports whether the email cell holds a value
func (m *Member) HasEmail() bool {
	return !IsMissing(m.Email)
}

// ImageName returns the archived QR code file name, relative to the image directory
func (m *Member) ImageName() string {
	return m.Key() + ".png"
}

// CardURL returns the public page URL encoded in the member's QR code
func (m *Member) CardURL(baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return baseURL + m.Key()
}

// IsMissing reports whether a cell is empty or carries the missing-value marker
func IsMissing(cell string) bool {
	cell = strings.TrimSpace(cell)
	return cell == "" || strings.EqualFold(cell, MissingValue)
}

// Validate checks that the member key is safe to use as a file name
func (m *Member) Validate() error {
	return CheckKey(m.Key())
}

// CheckKey rejects keys that would escape the output directory
func CheckKey(key string) error {
	if strings.ContainsAny(key, "/\\\x00") || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrUnsafeKey, key)
	}
	return nil
}
