package crypto_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"pqchat/internal/crypto"
	"pqchat/internal/domain"
)

func TestDecodeKey_OddHexRejected(t *testing.T) {
	if _, err := crypto.DecodeKey("abc", crypto.EncodingHex); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDecodeKey_Hex(t *testing.T) {
	got, err := crypto.DecodeKey("0x00ff10", crypto.EncodingHex)
	if err != nil {
		t.Fatalf("DecodeKey: %v", err)
	}
	if !bytes.Equal(got, []byte{0x00, 0xff, 0x10}) {
		t.Fatalf("got %x", got)
	}
}

func TestDecodeKey_Base64(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}
	got, err := crypto.DecodeKey(crypto.EncodeBase64(raw), crypto.EncodingBase64)
	if err != nil {
		t.Fatalf("DecodeKey: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("got %x", got)
	}
	if _, err := crypto.DecodeKey("%%%", crypto.EncodingBase64); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("malformed base64: err = %v", err)
	}
}

func TestValidateSigningKey_Bounds(t *testing.T) {
	cases := []struct {
		n  int
		ok bool
	}{
		{0, false},
		{15, false},
		{16, true},
		{1952, true},
		{8192, true},
		{8193, false},
	}
	for _, tc := range cases {
		err := crypto.ValidateSigningKey(make([]byte, tc.n))
		if tc.ok && err != nil {
			t.Errorf("%d bytes: unexpected error %v", tc.n, err)
		}
		if !tc.ok && !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%d bytes: err = %v, want ErrValidation", tc.n, err)
		}
	}
}

func TestDecodeSigningKey_HexBoundary(t *testing.T) {
	exact := hex.EncodeToString(make([]byte, 16))
	if _, err := crypto.DecodeSigningKey(exact, crypto.EncodingHex); err != nil {
		t.Fatalf("16 bytes: %v", err)
	}
	short := strings.Repeat("ab", 15)
	if _, err := crypto.DecodeSigningKey(short, crypto.EncodingHex); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("15 bytes: err = %v", err)
	}
}

func TestFingerprint_ShortAndStable(t *testing.T) {
	a := crypto.Fingerprint([]byte("kem"), []byte("sig"))
	if len(a) != 20 {
		t.Fatalf("fingerprint length = %d", len(a))
	}
	if a != crypto.Fingerprint([]byte("kem"), []byte("sig")) {
		t.Fatal("fingerprint not stable")
	}
	if a == crypto.Fingerprint([]byte("sig"), []byte("kem")) {
		t.Fatal("fingerprint ignores key order")
	}
}
