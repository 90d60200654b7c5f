package extract

import (
	"github.com/kvashee/bankfeed/pkg/models"
)

// Defaults supplies the per-user values that fill gaps in an extraction:
// the asset account the alert concerns, the counter account chosen from
// the sender mapping, and the currency to assume when the message names
// none.
type Defaults struct {
	Currency       string
	AssetAccount   string
	CounterAccount string
}

// BuildCandidate turns an extraction into a balanced two-posting
// candidate. A debit moves money out of the asset account into the
// counter account; a credit is the reverse. The postings sum to zero by
// construction, but callers still validate before submission.
func BuildCandidate(ext *Extraction, d Defaults) *models.Candidate {
	currency := NormalizeCurrency(ext.Currency, d.Currency)

	assetAmount := ext.Amount.Neg()
	counterAmount := ext.Amount
	if ext.Direction == models.DirectionCredit {
		assetAmount = ext.Amount
		counterAmount = ext.Amount.Neg()
	}

	return &models.Candidate{
		Date:  ext.Date,
		Payee: ext.Merchant,
		Postings: []models.Posting{
			{Account: d.AssetAccount, Amount: assetAmount, Currency: currency},
			{Account: d.CounterAccount, Amount: counterAmount, Currency: currency},
		},
		Confidence: ext.Confidence,
	}
}
