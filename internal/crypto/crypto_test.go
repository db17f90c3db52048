package crypto

import (
	"crypto/sha256"
	"strings"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

func TestNewEncryptor(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		wantNil    bool
	}{
		{
			name:       "valid passphrase",
			passphrase: "strong-passphrase-123",
			wantNil:    false,
		},
		{
			name:       "empty passphrase returns nil",
			passphrase: "",
			wantNil:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewEncryptor(tt.passphrase)
			if tt.wantNil && enc != nil {
				t.Errorf("NewEncryptor() = %v, want nil", enc)
			}
			if !tt.wantNil && enc == nil {
				t.Error("NewEncryptor() = nil, want non-nil")
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	enc := NewEncryptor("test-passphrase")

	tests := []struct {
		name      string
		plaintext string
	}{
		{"email address", "ana.lee@epfl.ch"},
		{"empty string", ""},
		{"unicode", "zoé.müller@example.ch"},
		{"long text", strings.Repeat("member ", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := enc.Encrypt(tt.plaintext)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			if tt.plaintext != "" && ciphertext == tt.plaintext {
				t.Error("Encrypt() returned plaintext")
			}

			plaintext, err := enc.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if plaintext != tt.plaintext {
				t.Errorf("Decrypt() = %q, want %q", plaintext, tt.plaintext)
			}
		})
	}
}

func TestEncryptDecrypt_NilEncryptor(t *testing.T) {
	var enc *Encryptor

	ciphertext, err := enc.Encrypt("ana.lee@epfl.ch")
	if err != nil || ciphertext != "ana.lee@epfl.ch" {
		t.Errorf("nil Encrypt() = %q, %v; want plaintext passthrough", ciphertext, err)
	}

	plaintext, err := enc.Decrypt("ana.lee@epfl.ch")
	if err != nil || plaintext != "ana.lee@epfl.ch" {
		t.Errorf("nil Decrypt() = %q, %v; want plaintext passthrough", plaintext, err)
	}
}

func TestDecrypt_LegacyPlaintext(t *testing.T) {
	enc := NewEncryptor("test-passphrase")

	// Written before LEDGER_KEY was set: not base64
	got, err := enc.Decrypt("ana.lee@epfl.ch")
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got != "ana.lee@epfl.ch" {
		t.Errorf("Decrypt() = %q, want plaintext unchanged", got)
	}
}

func TestDifferentEncryptors(t *testing.T) {
	enc1 := NewEncryptor("key-one")
	enc2 := NewEncryptor("key-two")

	ciphertext, err := enc1.Encrypt("ana.lee@epfl.ch")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	// The wrong key cannot open the value and falls back to returning it as-is
	got, err := enc2.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got == "ana.lee@epfl.ch" {
		t.Error("Decrypt() with a different key recovered the plaintext")
	}
}

func TestEncryption_ConsistentKeyDerivation(t *testing.T) {
	passphrase := "consistent"
	salt := sha256.Sum256([]byte(passphrase + "membercards-ledger"))
	want := pbkdf2.Key([]byte(passphrase), salt[:saltSize], iterations, keySize, sha256.New)

	enc := NewEncryptor(passphrase)
	if string(enc.key) != string(want) {
		t.Error("derived key does not match PBKDF2 derivation")
	}
}

func TestEncryption_NonDeterministic(t *testing.T) {
	enc := NewEncryptor("test-passphrase")

	a, _ := enc.Encrypt("ana.lee@epfl.ch")
	b, _ := enc.Encrypt("ana.lee@epfl.ch")
	if a == b {
		t.Error("Encrypt() produced identical ciphertexts; nonce is not random")
	}
}
