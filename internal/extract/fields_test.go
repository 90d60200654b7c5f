package extract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2,500.00", "2500", false},
		{"1,23,456.78", "123456.78", false},
		{"350.75", "350.75", false},
		{" 500 ", "500", false},
		{"0", "", true},
		{"-100", "", true},
		{"abc", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q) = %s, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		code, fallback, want string
	}{
		{"INR", "USD", "INR"},
		{"usd", "INR", "USD"},
		{" eur ", "INR", "EUR"},
		{"XYZ", "INR", "INR"},
		{"", "INR", "INR"},
	}

	for _, tt := range tests {
		if got := NormalizeCurrency(tt.code, tt.fallback); got != tt.want {
			t.Errorf("NormalizeCurrency(%q, %q) = %q, want %q", tt.code, tt.fallback, got, tt.want)
		}
	}
}

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		text, want string
	}{
		{"debited by INR 1,200 on 12-Mar-2024", "INR"},
		{"transaction of USD 16.52 on May 11, 2025", "USD"},
		{"was used for Rs.2,500.00 at AMAZON", "INR"},
		{"charged ₹350.75 at SWIGGY", "INR"},
		{"your statement is ready", ""},
	}

	for _, tt := range tests {
		if got := DetectCurrency(tt.text); got != tt.want {
			t.Errorf("DetectCurrency(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		formats []string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-15", []string{"2006-01-02"}, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"12-Mar-2024", nil, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), false},
		{"22 Apr 2024", nil, time.Date(2024, 4, 22, 0, 0, 0, 0, time.UTC), false},
		{"May 11, 2025", nil, time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC), false},
		{"10-04-2025", []string{"02-01-2006"}, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), false},
		{"yesterday", nil, time.Time{}, true},
		{"", nil, time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in, tt.formats)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
