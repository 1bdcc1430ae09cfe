package utils

import (
	"regexp"
	"testing"
	"time"
)

var orderNumberPattern = regexp.MustCompile(`^EC-\d{8}-[0-9A-F]{8}$`)
var invoiceNumberPattern = regexp.MustCompile(`^INV-\d{8}-[0-9A-F]{8}$`)

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	number := NewOrderNumber(now)
	if !orderNumberPattern.MatchString(number) {
		t.Errorf("order number %q does not match expected format", number)
	}
	if number[3:11] != "20260831" {
		t.Errorf("order number %q does not embed the date", number)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := NewOrderNumber(now)
		if seen[n] {
			t.Fatalf("duplicate order number %q", n)
		}
		seen[n] = true
	}
}

func TestNewInvoiceNumber(t *testing.T) {
	number := NewInvoiceNumber(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if !invoiceNumberPattern.MatchString(number) {
		t.Errorf("invoice number %q does not match expected format", number)
	}
	if number[4:12] != "20260105" {
		t.Errorf("invoice number %q does not embed the date", number)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9876543210", "9876543210"},
		{"+91 98765 43210", "+919876543210"},
		{"(987) 654-3210", "9876543210"},
		{"98+76543210", "9876543210"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.input); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDigitCount(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"9876543210", 10},
		{"+91 98765 43210", 12},
		{"no digits", 0},
	}

	for _, tt := range tests {
		if got := DigitCount(tt.input); got != tt.want {
			t.Errorf("DigitCount(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
