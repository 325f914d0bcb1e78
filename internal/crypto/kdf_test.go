package crypto_test

import (
	"bytes"
	"testing"

	"pqchat/internal/crypto"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, crypto.SaltBytes)

	a := crypto.DeriveKey("correct horse", salt)
	b := crypto.DeriveKey("correct horse", salt)
	if len(a) != crypto.KeyBytes {
		t.Fatalf("key length = %d, want %d", len(a), crypto.KeyBytes)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("same passphrase and salt gave different keys")
	}
}

func TestDeriveKey_SaltSeparates(t *testing.T) {
	s1, err := crypto.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	s2, err := crypto.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	if bytes.Equal(s1, s2) {
		t.Fatal("two fresh salts are equal")
	}
	if bytes.Equal(crypto.DeriveKey("pw", s1), crypto.DeriveKey("pw", s2)) {
		t.Fatal("different salts gave the same key")
	}
}
