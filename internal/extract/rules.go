package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/kvashee/bankfeed/pkg/models"
)

// RuleSet is a deterministic template for one bank's alert format. A
// rule-set succeeds only when every required field (amount, date,
// direction, merchant) parses; currency alone may fall back later.
type RuleSet struct {
	Name        string
	Senders     []string // substring match against the alert sender address
	Amount      *regexp.Regexp
	Date        *regexp.Regexp
	DateFormats []string
	Debit       *regexp.Regexp
	Credit      *regexp.Regexp
	Merchant    *regexp.Regexp
}

// AppliesTo reports whether this rule-set covers the given sender
func (r *RuleSet) AppliesTo(sender string) bool {
	sender = strings.ToLower(sender)
	for _, s := range r.Senders {
		if strings.Contains(sender, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Extract attempts to parse the message with this template. Returns
// (nil, nil) when any required field is missing.
func (r *RuleSet) Extract(text string) (*Extraction, error) {
	amountMatch := r.Amount.FindStringSubmatch(text)
	if len(amountMatch) < 2 {
		return nil, nil
	}
	amount, err := ParseAmount(amountMatch[1])
	if err != nil {
		return nil, nil
	}

	dateMatch := r.Date.FindStringSubmatch(text)
	if len(dateMatch) < 2 {
		return nil, nil
	}
	date, err := ParseDate(dateMatch[1], r.DateFormats)
	if err != nil {
		return nil, nil
	}

	var direction models.Direction
	switch {
	case r.Debit != nil && r.Debit.MatchString(text):
		direction = models.DirectionDebit
	case r.Credit != nil && r.Credit.MatchString(text):
		direction = models.DirectionCredit
	default:
		return nil, nil
	}

	merchantMatch := r.Merchant.FindStringSubmatch(text)
	if len(merchantMatch) < 2 {
		return nil, nil
	}
	merchant := strings.TrimSpace(merchantMatch[1])
	if merchant == "" {
		return nil, nil
	}

	return &Extraction{
		Amount:    amount,
		Currency:  DetectCurrency(text),
		Date:      date,
		Direction: direction,
		Merchant:  merchant,
	}, nil
}

// RulesExtractor is the deterministic layer of the engine: an ordered
// list of rule-sets indexed by sender.
type RulesExtractor struct {
	sets []*RuleSet
}

// NewRulesExtractor creates the deterministic extractor
func NewRulesExtractor(sets []*RuleSet) *RulesExtractor {
	return &RulesExtractor{sets: sets}
}

func (e *RulesExtractor) Name() string { return "rules" }

func (e *RulesExtractor) Confidence() models.Confidence { return models.ConfidenceHigh }

func (e *RulesExtractor) Extract(ctx context.Context, text, sender string) (*Extraction, error) {
	for _, set := range e.sets {
		if !set.AppliesTo(sender) {
			continue
		}
		result, err := set.Extract(text)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, nil
}

// DefaultRuleSets covers the transaction alert formats of the major banks
// this pipeline was built against.
func DefaultRuleSets() []*RuleSet {
	return []*RuleSet{
		{
			// "Your HDFC Bank Credit Card ending 1234 was used for
			// Rs.2,500.00 at AMAZON RETAIL INDIA on 2024-01-15 17:45:32."
			Name:        "hdfc-card",
			Senders:     []string{"hdfcbank.com", "hdfcbank.net"},
			Amount:      regexp.MustCompile(`(?i)(?:Rs\.?|INR|USD|₹)\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
			Date:        regexp.MustCompile(`\bon\s+(\d{4}-\d{2}-\d{2})`),
			DateFormats: []string{"2006-01-02"},
			Debit:       regexp.MustCompile(`(?i)\b(?:was used|debited|spent)\b`),
			Credit:      regexp.MustCompile(`(?i)\bcredited\b`),
			Merchant:    regexp.MustCompile(`(?i)\bat\s+([A-Z0-9][A-Za-z0-9 .&*'/-]+?)\s+on\b`),
		},
		{
			// "SBI Transaction Alert: Your account XX7890 has been debited
			// by INR 1,200 on 12-Mar-2024 at 09:30:45 for payment to
			// FLIPKART PVT LTD."
			Name:        "sbi-alert",
			Senders:     []string{"sbi.co.in", "alerts@sbi"},
			Amount:      regexp.MustCompile(`(?i)(?:Rs\.?|INR|₹)\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
			Date:        regexp.MustCompile(`\bon\s+(\d{1,2}-[A-Za-z]{3}-\d{4})`),
			DateFormats: []string{"2-Jan-2006", "02-Jan-2006"},
			Debit:       regexp.MustCompile(`(?i)\bdebited\b`),
			Credit:      regexp.MustCompile(`(?i)\bcredited\b`),
			Merchant:    regexp.MustCompile(`(?i)(?:payment to|received from|towards)\s+([A-Za-z0-9 .&*'/-]+?)(?:\.|,|$)`),
		},
		{
			// "ICICI Bank: Rs 350.75 debited from your a/c XX5678 on
			// 22 Apr 2024 for POS tx at SWIGGY. Avl Bal: Rs.12,456.80"
			Name:        "icici-account",
			Senders:     []string{"icicibank.com"},
			Amount:      regexp.MustCompile(`(?i)(?:Rs\.?|INR|₹)\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
			Date:        regexp.MustCompile(`\bon\s+(\d{1,2}\s+[A-Za-z]{3}\s+\d{4})`),
			DateFormats: []string{"2 Jan 2006", "02 Jan 2006"},
			Debit:       regexp.MustCompile(`(?i)\bdebited\b`),
			Credit:      regexp.MustCompile(`(?i)\bcredited\b`),
			Merchant:    regexp.MustCompile(`(?i)\b(?:tx |transaction )?at\s+([A-Z0-9][A-Za-z0-9 .&*'/-]*?)(?:\.|,|$)`),
		},
		{
			// "Your ICICI Bank Credit Card XX9005 has been used for a
			// transaction of USD 16.52 on May 11, 2025 at 12:00:54.
			// Info: SQSP* INV181442393."
			Name:        "icici-card",
			Senders:     []string{"icicibank.com"},
			Amount:      regexp.MustCompile(`(?i)(?:INR|USD|EUR|GBP|Rs\.?|₹)\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
			Date:        regexp.MustCompile(`\bon\s+([A-Za-z]{3} \d{1,2}, \d{4})`),
			DateFormats: []string{"Jan 2, 2006"},
			Debit:       regexp.MustCompile(`(?i)\b(?:has been used|debited)\b`),
			Credit:      regexp.MustCompile(`(?i)\bcredited\b`),
			Merchant:    regexp.MustCompile(`(?i)Info:\s*([^.\n]+)`),
		},
		{
			// "INR 500.00 debited from A/c no. XX1234 on 10-04-2025 at
			// AMAZON PAY. Axis Bank."
			Name:        "axis-alert",
			Senders:     []string{"axisbank.com"},
			Amount:      regexp.MustCompile(`(?i)(?:Rs\.?|INR|₹)\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
			Date:        regexp.MustCompile(`\bon\s+(\d{2}-\d{2}-\d{4})`),
			DateFormats: []string{"02-01-2006"},
			Debit:       regexp.MustCompile(`(?i)\bdebited\b`),
			Credit:      regexp.MustCompile(`(?i)\bcredited\b`),
			Merchant:    regexp.MustCompile(`(?i)\bat\s+([A-Z0-9][A-Za-z0-9 .&*'/-]*?)(?:\.|,|$)`),
		},
	}
}
