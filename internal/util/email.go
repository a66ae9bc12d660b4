package util //nolint:revive // shared helpers used by adapters and templates

import (
	"errors"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidEmail is returned by NormalizeEmail for addresses without a local
// part or a valid domain.
var ErrInvalidEmail = errors.New("invalid email address")

// NormalizeEmail trims and lower-cases an address and converts an
// internationalized domain to its ASCII (punycode) form, so "Ana@Imóveis.com"
// and "ana@xn--imveis-cxa.com" name the same account.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "", ErrInvalidEmail
	}
	domain, err := idna.Lookup.ToASCII(email[at+1:])
	if err != nil {
		return "", ErrInvalidEmail
	}
	return email[:at+1] + domain, nil
}
