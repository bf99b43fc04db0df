package common

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var nonNumericRegex = regexp.MustCompile(`[^0-9.]`)

// CleanDecimal parses a string into a decimal.Decimal, removing non-numeric characters
func CleanDecimal(text string) (decimal.Decimal, error) {
	cleanText := nonNumericRegex.ReplaceAllString(text, "")
	if cleanText == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(cleanText)
	if err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// PadBSR left-pads a matched BSR digit string to exactly 7 characters.
// The padding is semantically significant: "123" and "0000123" are the
// same branch on paper but different strings to the filing utility.
func PadBSR(digits string) string {
	digits = strings.TrimSpace(digits)
	for len(digits) < 7 {
		digits = "0" + digits
	}
	return digits
}

// RoundRupees rounds a monetary amount to whole rupees using half-up
// rounding, as the return forms require. decimal.Round rounds half away
// from zero, which is half-up for the non-negative amounts on a challan.
func RoundRupees(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}

// NormalizeSection strips internal whitespace from a section code so that
// "94 A" and "94A" group together.
func NormalizeSection(section string) string {
	return strings.ReplaceAll(strings.TrimSpace(section), " ", "")
}

// FormatSection renders a section code in the spaced form the output
// template uses, e.g. "94A" -> "94 A".
func FormatSection(section string) string {
	s := NormalizeSection(section)
	if len(s) >= 3 && isDigits(s[:2]) && s[2] >= 'A' && s[2] <= 'Z' {
		return s[:2] + " " + s[2:]
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// dateLayouts are tried in order when parsing date strings from challans
// and spreadsheet cells.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
	"02/01/06",
	"2-Jan-06",
	"2-Jan-2006",
	"2006-01-02 15:04:05",
}

// ParseDate parses a date string against the known layout list.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if dt, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}
