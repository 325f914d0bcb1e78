package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxUserIDBytes bounds the length of a user id.
const MaxUserIDBytes = 128

// ValidateUserID rejects ids that are empty, too long, "." or "..", or
// that contain path separators, whitespace or control characters. Every
// id that reaches a store, the relay or a file path passes through here.
func ValidateUserID(u UserID) error {
	s := string(u)
	switch {
	case s == "":
		return fmt.Errorf("user id is empty: %w", ErrValidation)
	case len(s) > MaxUserIDBytes:
		return fmt.Errorf("user id is %d bytes, max %d: %w", len(s), MaxUserIDBytes, ErrValidation)
	case s == "." || s == "..":
		return fmt.Errorf("user id %q is reserved: %w", s, ErrValidation)
	case !utf8.ValidString(s):
		return fmt.Errorf("user id is not valid UTF-8: %w", ErrValidation)
	case strings.ContainsAny(s, `/\`):
		return fmt.Errorf("user id %q contains a path separator: %w", s, ErrValidation)
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("user id %q contains whitespace or control characters: %w", s, ErrValidation)
		}
	}
	return nil
}
