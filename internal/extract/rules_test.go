package extract

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kvashee/bankfeed/pkg/models"
)

func TestRuleSetsAgainstSampleAlerts(t *testing.T) {
	e := NewRulesExtractor(DefaultRuleSets())
	ctx := context.Background()

	tests := []struct {
		name      string
		sender    string
		body      string
		amount    string
		currency  string
		date      time.Time
		direction models.Direction
		merchant  string
	}{
		{
			name:      "hdfc card debit",
			sender:    "alerts@hdfcbank.net",
			body:      "Dear Customer, Your HDFC Bank Credit Card ending 1234 was used for Rs.2,500.00 at AMAZON RETAIL INDIA on 2024-01-15 17:45:32. If not done by you, call 18002586161.",
			amount:    "2500.00",
			currency:  "INR",
			date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			direction: models.DirectionDebit,
			merchant:  "AMAZON RETAIL INDIA",
		},
		{
			name:      "sbi account debit",
			sender:    "alerts@sbi.co.in",
			body:      "SBI Transaction Alert: Your account XX7890 has been debited by INR 1,200 on 12-Mar-2024 at 09:30:45 for payment to FLIPKART PVT LTD.",
			amount:    "1200",
			currency:  "INR",
			date:      time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
			direction: models.DirectionDebit,
			merchant:  "FLIPKART PVT LTD",
		},
		{
			name:      "icici account debit",
			sender:    "credit_cards@icicibank.com",
			body:      "ICICI Bank: Rs 350.75 debited from your a/c XX5678 on 22 Apr 2024 for POS tx at SWIGGY. Avl Bal: Rs.12,456.80",
			amount:    "350.75",
			currency:  "INR",
			date:      time.Date(2024, 4, 22, 0, 0, 0, 0, time.UTC),
			direction: models.DirectionDebit,
			merchant:  "SWIGGY",
		},
		{
			name:      "icici card foreign currency",
			sender:    "credit_cards@icicibank.com",
			body:      "Your ICICI Bank Credit Card XX9005 has been used for a transaction of USD 16.52 on May 11, 2025 at 12:00:54. Info: SQSP* INV181442393.",
			amount:    "16.52",
			currency:  "USD",
			date:      time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC),
			direction: models.DirectionDebit,
			merchant:  "SQSP* INV181442393",
		},
		{
			name:      "axis debit",
			sender:    "alerts@axisbank.com",
			body:      "INR 500.00 debited from A/c no. XX1234 on 10-04-2025 at AMAZON PAY. Axis Bank.",
			amount:    "500.00",
			currency:  "INR",
			date:      time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
			direction: models.DirectionDebit,
			merchant:  "AMAZON PAY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(ctx, tt.body, tt.sender)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got == nil {
				t.Fatal("Extract returned no result")
			}
			if !got.Amount.Equal(decimal.RequireFromString(tt.amount)) {
				t.Errorf("amount = %s, want %s", got.Amount, tt.amount)
			}
			if got.Currency != tt.currency {
				t.Errorf("currency = %q, want %q", got.Currency, tt.currency)
			}
			if !got.Date.Equal(tt.date) {
				t.Errorf("date = %v, want %v", got.Date, tt.date)
			}
			if got.Direction != tt.direction {
				t.Errorf("direction = %q, want %q", got.Direction, tt.direction)
			}
			if got.Merchant != tt.merchant {
				t.Errorf("merchant = %q, want %q", got.Merchant, tt.merchant)
			}
		})
	}
}

func TestRulesExtractorNoMatch(t *testing.T) {
	e := NewRulesExtractor(DefaultRuleSets())
	ctx := context.Background()

	tests := []struct {
		name   string
		sender string
		body   string
	}{
		{
			name:   "unknown sender",
			sender: "newsletter@example.com",
			body:   "Rs.2,500.00 was debited at AMAZON on 2024-01-15.",
		},
		{
			name:   "known sender but promotional body",
			sender: "alerts@hdfcbank.net",
			body:   "Upgrade your HDFC Bank Credit Card today and enjoy 5X rewards.",
		},
		{
			name:   "missing date",
			sender: "alerts@sbi.co.in",
			body:   "Your account XX7890 has been debited by INR 1,200 for payment to FLIPKART PVT LTD.",
		},
		{
			name:   "missing direction",
			sender: "alerts@axisbank.com",
			body:   "INR 500.00 transaction alert for A/c no. XX1234 on 10-04-2025 at AMAZON PAY.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(ctx, tt.body, tt.sender)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != nil {
				t.Errorf("Extract matched %+v, want no result", got)
			}
		})
	}
}

func TestRuleSetCreditDirection(t *testing.T) {
	e := NewRulesExtractor(DefaultRuleSets())

	body := "SBI Transaction Alert: Your account XX7890 has been credited by INR 45,000 on 01-Mar-2024 at 10:00:00 received from ACME CORP SALARY."
	got, err := e.Extract(context.Background(), body, "alerts@sbi.co.in")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got == nil {
		t.Fatal("Extract returned no result")
	}
	if got.Direction != models.DirectionCredit {
		t.Errorf("direction = %q, want credit", got.Direction)
	}
	if !got.Amount.Equal(decimal.RequireFromString("45000")) {
		t.Errorf("amount = %s, want 45000", got.Amount)
	}
	if got.Merchant != "ACME CORP SALARY" {
		t.Errorf("merchant = %q, want %q", got.Merchant, "ACME CORP SALARY")
	}
}
