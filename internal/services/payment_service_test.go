package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/electioncart/internal/models"
)

func TestDerivePaymentStatus(t *testing.T) {
	total := decimal.NewFromInt(5000)

	tests := []struct {
		name string
		paid decimal.Decimal
		want models.PaymentStatus
	}{
		{"nothing paid", decimal.Zero, models.PaymentUnpaid},
		{"negative ledger", decimal.NewFromInt(-100), models.PaymentUnpaid},
		{"partial", decimal.NewFromInt(2000), models.PaymentPartial},
		{"one rupee short", decimal.NewFromInt(4999), models.PaymentPartial},
		{"exactly paid", decimal.NewFromInt(5000), models.PaymentPaid},
		{"overpaid", decimal.NewFromInt(5500), models.PaymentPaid},
		{"fractional partial", decimal.RequireFromString("4999.99"), models.PaymentPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivePaymentStatus(total, tt.paid); got != tt.want {
				t.Errorf("DerivePaymentStatus(%s, %s) = %s, want %s", total, tt.paid, got, tt.want)
			}
		})
	}
}

func TestDerivePaymentStatusAccumulates(t *testing.T) {
	total := decimal.NewFromInt(5000)

	paid := decimal.NewFromInt(2000)
	if got := DerivePaymentStatus(total, paid); got != models.PaymentPartial {
		t.Fatalf("after first installment: %s, want partial", got)
	}

	paid = paid.Add(decimal.NewFromInt(3000))
	if got := DerivePaymentStatus(total, paid); got != models.PaymentPaid {
		t.Fatalf("after second installment: %s, want paid", got)
	}
}

func TestApplyPaymentTotalsStampsCompletionOnce(t *testing.T) {
	order := &models.Order{TotalAmount: decimal.NewFromInt(5000)}

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	updates := applyPaymentTotals(order, decimal.NewFromInt(2000), first)
	if order.PaymentStatus != models.PaymentPartial {
		t.Fatalf("after partial payment: %s, want partial", order.PaymentStatus)
	}
	if order.PaymentCompletedAt != nil {
		t.Fatal("payment_completed_at stamped on a partial payment")
	}
	if _, ok := updates["payment_completed_at"]; ok {
		t.Fatal("updates carry payment_completed_at on a partial payment")
	}

	second := first.Add(time.Hour)
	updates = applyPaymentTotals(order, decimal.NewFromInt(5000), second)
	if order.PaymentStatus != models.PaymentPaid {
		t.Fatalf("after full payment: %s, want paid", order.PaymentStatus)
	}
	if order.PaymentCompletedAt == nil || !order.PaymentCompletedAt.Equal(second) {
		t.Fatalf("payment_completed_at = %v, want %v", order.PaymentCompletedAt, second)
	}
	if _, ok := updates["payment_completed_at"]; !ok {
		t.Fatal("updates missing payment_completed_at on the paying record")
	}

	third := second.Add(time.Hour)
	updates = applyPaymentTotals(order, decimal.NewFromInt(6000), third)
	if !order.PaymentCompletedAt.Equal(second) {
		t.Fatalf("overpayment restamped payment_completed_at to %v", order.PaymentCompletedAt)
	}
	if _, ok := updates["payment_completed_at"]; ok {
		t.Fatal("updates carry payment_completed_at on an overpayment record")
	}
}
