package util

import (
	"regexp"
	"strconv"
	"strings"
)

var currencyAmountRe = regexp.MustCompile(`(\d[\d,]*)\s*(?:₪|שח|ש"ח|NIS|ILS)`)

// FirstCurrencyAmount extracts the first currency-suffixed number from free
// text, e.g. "החל מ-850 ₪ לשעה" yields 850. Returns nil when the text
// contains no priced figure.
func FirstCurrencyAmount(text string) *int {
	m := currencyAmountRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil
	}
	return &n
}

// DigitsOnly strips every non-digit rune from a contact number. The raw
// display form is kept only in memory and never persisted.
func DigitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LeadingInt parses the integer prefix of a string ("24 years" -> 24).
// Returns nil when the string does not start with digits.
func LeadingInt(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}
