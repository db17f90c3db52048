package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/clubmontagne/membercards/internal/member"
)

// RequiredColumns lists the header names every roster must carry
var RequiredColumns = []string{
	"First name",
	"Last name",
	"Email Address",
	"Status",
	"Payment",
	"EPFL personal page link",
}

// ErrMissingColumns is returned when the header lacks a required column
var ErrMissingColumns = errors.New("roster is missing required columns")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the roster at path
func Load(path string) ([]*member.Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	return Parse(data)
}

// Parse decodes roster CSV data, preserving row order
func Parse(data []byte) ([]*member.Member, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("reading roster header: %w", err)
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	members := make([]*member.Member, 0)
	if err := gocsv.UnmarshalBytes(data, &members); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}

	for i, m := range members {
		m.FirstName = strings.TrimSpace(m.FirstName)
		m.LastName = strings.TrimSpace(m.LastName)
		m.Email = strings.TrimSpace(m.Email)
		m.ProfileLink = strings.TrimSpace(m.ProfileLink)

		// Reject the whole roster before any page is written
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	return members, nil
}

// missingColumns returns the required columns absent from header
func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
