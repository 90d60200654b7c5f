package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a bank transaction relative to the user's asset account.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Confidence of an extraction result.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"   // deterministic rule-set
	ConfidenceMedium Confidence = "medium" // model-based fallback
)

// Posting is one leg of a double-entry transaction.
type Posting struct {
	Account  string          `json:"account"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Candidate is a parsed transaction pending validation and submission.
// It exists only in memory for the duration of one message's processing
// and is never persisted.
type Candidate struct {
	Date       time.Time  `json:"date"` // calendar date, time-of-day discarded
	Payee      string     `json:"payee"`
	Postings   []Posting  `json:"postings"`
	Confidence Confidence `json:"confidence"`
}

// Balanced reports whether the postings sum to zero per currency.
// A candidate that does not balance must never be submitted.
func (c *Candidate) Balanced() bool {
	sums := make(map[string]decimal.Decimal, 2)
	for _, p := range c.Postings {
		sums[p.Currency] = sums[p.Currency].Add(p.Amount)
	}
	for _, sum := range sums {
		if !sum.IsZero() {
			return false
		}
	}
	return true
}
