package validate

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// MaxIDLen bounds identifiers accepted from requests. Ids are opaque and
// matched exactly, so only length and control characters are restricted.
const MaxIDLen = 128

// ID validates a card identifier as it arrives from a query string or form.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxIDLen {
		return s, false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return s, false
		}
	}
	return s, true
}

// Text normalises free text for storage: NFC, trimmed, control characters
// other than newline and tab dropped. Markup is left as literal text.
func Text(s string) (string, bool) {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Price parses a decimal price string and requires it to be strictly positive.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, d.IsPositive()
}

// AbsoluteURL accepts only syntactically valid absolute URLs (scheme and host).
func AbsoluteURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return s, false
	}
	return s, true
}
