package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNameEmpty is returned when a place name is empty or whitespace-only after trim.
var ErrNameEmpty = errors.New("place name is required")

// ErrNameTooLong is returned when a place name exceeds the maximum length.
var ErrNameTooLong = errors.New("place name too long")

// ErrNameInvalidChars is returned when a place name contains disallowed characters.
var ErrNameInvalidChars = errors.New("place name contains invalid characters")

// ValidatePlaceName trims the input, enforces a maximum length (maxLen in
// runes, 0 = unlimited), and restricts to characters that occur in place
// names: letters (Unicode), digits, space, comma, hyphen, period, apostrophe.
// Returns the trimmed string or an error suitable for INVALID_INPUT responses.
func ValidatePlaceName(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrNameEmpty
	}
	if maxLen > 0 && len(r) > maxLen {
		return "", ErrNameTooLong
	}
	for _, c := range r {
		if !isAllowedNameRune(c) {
			return "", ErrNameInvalidChars
		}
	}
	return s, nil
}

// isAllowedNameRune returns true for letters (Unicode), digits, space,
// comma, hyphen, period, apostrophe.
func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'':
		return true
	}
	return false
}
