// Package email derives display names from addresses for notification
// templates.
package email

import (
	"strings"
	"unicode"
)

// fallbackName stands in when the local part yields nothing usable. Welcome
// emails read better with a generic salutation than with a raw address.
const fallbackName = "Investor"

// DeriveNameFromEmail splits the local part of an address on common
// separators and treats the first and last segments as first and last name.
// "jordan.reyes@example.com" becomes ("Jordan", "Reyes").
func DeriveNameFromEmail(email string) (string, string) {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}

	parts := strings.FieldsFunc(local, isSeparator)
	if len(parts) == 0 {
		return fallbackName, fallbackName
	}

	first := capitalize(parts[0])
	last := fallbackName
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func isSeparator(r rune) bool {
	return r == '.' || r == '_' || r == '-' || r == '+'
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
