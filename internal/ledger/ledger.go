package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clubmontagne/membercards/internal/crypto"
)

const fileName = "ledger.json"

// Entry records one delivered card
type Entry struct {
	Recipient string    `json:"recipient"`
	CardURL   string    `json:"card_url"`
	RunID     string    `json:"run_id"`
	SentAt    time.Time `json:"sent_at"`
}

type document struct {
	UpdatedAt string            `json:"updated_at"`
	Entries   map[string]*Entry `json:"entries"`
}

// Ledger tracks delivered cards by member key
type Ledger struct {
	path      string
	encryptor *crypto.Encryptor
	entries   map[string]*Entry
}

// Open loads the ledger in dataDir, creating the directory if needed.
// A non-empty key encrypts recipient addresses.
func Open(dataDir, key string) (*Ledger, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	l := &Ledger{
		path:      filepath.Join(dataDir, fileName),
		encryptor: crypto.NewEncryptor(key),
		entries:   make(map[string]*Entry),
	}

	if err := l.load(); err != nil {
		return nil, err
	}

	return l, nil
}

// Path returns the ledger file path
func (l *Ledger) Path() string {
	return l.path
}

// Len returns the number of recorded members
func (l *Ledger) Len() int {
	return len(l.entries)
}

func (l *Ledger) load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			// First run
			return nil
		}
		return fmt.Errorf("reading ledger: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing ledger: %w", err)
	}

	if doc.Entries != nil {
		l.entries = doc.Entries
	}

	return nil
}

// Sent reports whether the member's card was already delivered to recipient
// for the same card URL
func (l *Ledger) Sent(memberKey, recipient, cardURL string) (bool, error) {
	entry, exists := l.entries[memberKey]
	if !exists {
		return false, nil
	}

	stored, err := l.encryptor.Decrypt(entry.Recipient)
	if err != nil {
		return false, fmt.Errorf("decrypting ledger entry for %s: %w", memberKey, err)
	}

	return strings.EqualFold(stored, recipient) && entry.CardURL == cardURL, nil
}

// Record stores a delivery and saves the ledger
func (l *Ledger) Record(memberKey, recipient, cardURL, runID string) error {
	sealed, err := l.encryptor.Encrypt(recipient)
	if err != nil {
		return fmt.Errorf("encrypting recipient: %w", err)
	}

	l.entries[memberKey] = &Entry{
		Recipient: sealed,
		CardURL:   cardURL,
		RunID:     runID,
		SentAt:    time.Now().UTC(),
	}

	return l.save()
}

// save writes the ledger through a temporary file so a crash never leaves it truncated
func (l *Ledger) save() error {
	doc := document{
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:   l.entries,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}

	return nil
}
