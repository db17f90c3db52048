// Package expiry computes membership card expiration dates.
//
// A Policy is either a fixed date shared by every card of a season, or a
// duration counted from the day the member was verified.
package expiry

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is how expiration dates are printed on member pages
const DateLayout = "2006.01.02"

// ErrNoPolicy is returned when neither a date nor a duration was given
var ErrNoPolicy = errors.New("an expiration policy is required (--expires or --valid-for)")

// Policy decides when a card expires
type Policy struct {
	fixed    time.Time
	validFor time.Duration
}

// Fixed returns a policy where every card expires on date
func Fixed(date time.Time) Policy {
	return Policy{fixed: truncateDay(date)}
}

// After returns a policy where cards expire d after verification
func After(d time.Duration) Policy {
	return Policy{validFor: d}
}

// Parse builds a policy from command-line input; exactly one of expires and
// validFor must be set.
func Parse(expires string, validFor time.Duration) (Policy, error) {
	switch {
	case expires != "" && validFor != 0:
		return Policy{}, fmt.Errorf("--expires and --valid-for are mutually exclusive")
	case expires != "":
		date, err := ParseDate(expires)
		if err != nil {
			return Policy{}, err
		}
		return Fixed(date), nil
	case validFor < 0:
		return Policy{}, fmt.Errorf("invalid --valid-for: %s must be positive", validFor)
	case validFor > 0:
		return After(validFor), nil
	default:
		return Policy{}, ErrNoPolicy
	}
}

// ParseDate accepts "2025.09.30" and "2025-09-30"
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{DateLayout, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid expiration date %q: want YYYY.MM.DD", s)
}

// IsFixed reports whether every card shares the same expiration date
func (p Policy) IsFixed() bool {
	return !p.fixed.IsZero()
}

// ExpiresAt returns the expiration date for a member verified at verifiedAt
func (p Policy) ExpiresAt(verifiedAt time.Time) time.Time {
	if p.IsFixed() {
		return p.fixed
	}
	return truncateDay(verifiedAt.Add(p.validFor))
}

// String describes the policy for logs
func (p Policy) String() string {
	if p.IsFixed() {
		return "fixed " + Format(p.fixed)
	}
	return "valid for " + p.validFor.String()
}

// Format renders a date the way member pages print it
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
