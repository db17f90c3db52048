package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cardURL = "https://clubmontagne.github.io/members/Ana_Lee"

func TestLedger_RecordAndSent(t *testing.T) {
	dir := t.TempDir()

	l, err := Open(dir, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("new ledger Len() = %d, want 0", l.Len())
	}

	sent, err := l.Sent("Ana_Lee", "ana.lee@epfl.ch", cardURL)
	if err != nil || sent {
		t.Fatalf("Sent() before record = %v, %v; want false, nil", sent, err)
	}

	if err := l.Record("Ana_Lee", "ana.lee@epfl.ch", cardURL, "run-1"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Reopen to prove the entry was persisted
	reopened, err := Open(dir, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	tests := []struct {
		name      string
		key       string
		recipient string
		url       string
		want      bool
	}{
		{"same member and address", "Ana_Lee", "ana.lee@epfl.ch", cardURL, true},
		{"address case differs", "Ana_Lee", "Ana.Lee@EPFL.ch", cardURL, true},
		{"address changed", "Ana_Lee", "ana@gmail.com", cardURL, false},
		{"card moved", "Ana_Lee", "ana.lee@epfl.ch", "https://example.org/Ana_Lee", false},
		{"other member", "Marc_Dupont", "ana.lee@epfl.ch", cardURL, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reopened.Sent(tt.key, tt.recipient, tt.url)
			if err != nil {
				t.Fatalf("Sent() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Sent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLedger_Encrypted(t *testing.T) {
	dir := t.TempDir()

	l, err := Open(dir, "ledger-secret")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := l.Record("Ana_Lee", "ana.lee@epfl.ch", cardURL, "run-1"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	if strings.Contains(string(data), "ana.lee@epfl.ch") {
		t.Error("ledger file contains the plaintext address")
	}

	reopened, err := Open(dir, "ledger-secret")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sent, err := reopened.Sent("Ana_Lee", "ana.lee@epfl.ch", cardURL)
	if err != nil || !sent {
		t.Errorf("Sent() = %v, %v; want true, nil", sent, err)
	}

	// Without the key the sealed address does not match
	unkeyed, err := Open(dir, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if sent, _ := unkeyed.Sent("Ana_Lee", "ana.lee@epfl.ch", cardURL); sent {
		t.Error("Sent() matched an encrypted address without the key")
	}
}

func TestOpen_CorruptLedger(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(dir, ""); err == nil {
		t.Error("Open() expected error for corrupt ledger, got nil")
	}
}

func TestOpen_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	l, err := Open(dir, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
	if l.Path() != filepath.Join(dir, fileName) {
		t.Errorf("Path() = %q", l.Path())
	}
}
