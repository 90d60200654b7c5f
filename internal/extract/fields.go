package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DateFormats is the set of layouts bank alert emails are known to use.
// Rule-sets narrow this down per template; fallback validation tries all.
var DateFormats = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

var (
	currencyCodeRegex = regexp.MustCompile(`\b(INR|USD|EUR|GBP|AUD|CAD|SGD|AED|JPY)\b`)
	rupeeSymbolRegex  = regexp.MustCompile(`(?i)(?:\bRs\.?|₹)\s*[0-9]`)
)

// ParseAmount parses a monetary amount as an exact decimal. Thousands
// separators are stripped; the amount must be strictly positive.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", amount)
	}
	return amount, nil
}

// NormalizeCurrency validates a currency code against the ISO table and
// falls back to the given default when the code is unknown or empty.
func NormalizeCurrency(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != "" && money.GetCurrency(code) != nil {
		return code
	}
	return fallback
}

// DetectCurrency finds an explicit currency mention in the message body,
// returning an empty string when none is present.
func DetectCurrency(text string) string {
	if m := currencyCodeRegex.FindString(text); m != "" {
		return m
	}
	if rupeeSymbolRegex.MatchString(text) {
		return "INR"
	}
	return ""
}

// ParseDate parses a date string against the given layouts and discards
// the time-of-day component.
func ParseDate(s string, formats []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(formats) == 0 {
		formats = DateFormats
	}
	for _, layout := range formats {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date format %q", s)
}
