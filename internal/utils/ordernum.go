package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// NewOrderNumber returns an order number of the form EC-YYYYMMDD-XXXXXXXX
// where the suffix is 8 random uppercase hex characters.
func NewOrderNumber(now time.Time) string {
	return "EC-" + now.Format("20060102") + "-" + randomSuffix()
}

// NewInvoiceNumber returns an invoice number of the form INV-YYYYMMDD-XXXXXXXX.
func NewInvoiceNumber(now time.Time) string {
	return "INV-" + now.Format("20060102") + "-" + randomSuffix()
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}

// NormalizePhone strips every non-digit character except a leading plus.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitCount counts decimal digits in s.
func DigitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
