package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFieldValueRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value FieldValue
		check func(t *testing.T, got FieldValue)
	}{
		{
			name:  "text",
			value: TextValue("Vote for progress"),
			check: func(t *testing.T, got FieldValue) {
				if got.Kind() != ValueText || got.Text() != "Vote for progress" {
					t.Errorf("got kind=%v text=%q", got.Kind(), got.Text())
				}
			},
		},
		{
			name:  "number",
			value: NumberValue(500),
			check: func(t *testing.T, got FieldValue) {
				if got.Kind() != ValueNumber || got.Number() != 500 {
					t.Errorf("got kind=%v number=%d", got.Kind(), got.Number())
				}
			},
		},
		{
			name:  "file",
			value: FileValue("resources/2026/08/photo.png"),
			check: func(t *testing.T, got FieldValue) {
				if got.Kind() != ValueFile || got.File() != "resources/2026/08/photo.png" {
					t.Errorf("got kind=%v file=%q", got.Kind(), got.File())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var submission DynamicResourceSubmission
			submission.SetValue(tt.value)

			populated := 0
			for _, p := range []bool{submission.TextValue != nil, submission.NumberValue != nil, submission.FileValue != nil} {
				if p {
					populated++
				}
			}
			if populated != 1 {
				t.Fatalf("%d columns populated, want exactly 1", populated)
			}

			got, ok := submission.Value()
			if !ok {
				t.Fatal("Value() reported empty submission")
			}
			tt.check(t, got)
		})
	}
}

func TestFieldValueOverwriteClearsPrevious(t *testing.T) {
	var submission DynamicResourceSubmission
	submission.SetValue(NumberValue(42))
	submission.SetValue(TextValue("changed"))

	if submission.NumberValue != nil {
		t.Error("number column not cleared after overwrite")
	}
	got, ok := submission.Value()
	if !ok || got.Text() != "changed" {
		t.Errorf("got %v ok=%v, want text %q", got, ok, "changed")
	}
}

func TestFieldValueEmptySubmission(t *testing.T) {
	var submission DynamicResourceSubmission
	if _, ok := submission.Value(); ok {
		t.Error("empty submission reported a value")
	}
}

func TestAllResourcesUploaded(t *testing.T) {
	order := Order{Items: []OrderItem{
		{ResourcesUploaded: true},
		{ResourcesUploaded: false},
	}}
	if order.AllResourcesUploaded() {
		t.Error("reported complete with pending item")
	}

	order.Items[1].ResourcesUploaded = true
	if !order.AllResourcesUploaded() {
		t.Error("reported incomplete with all items done")
	}

	empty := Order{}
	if !empty.AllResourcesUploaded() {
		t.Error("order without items should count as complete")
	}
}

func TestResourceUploadProgress(t *testing.T) {
	tests := []struct {
		name     string
		uploaded []bool
		want     int
	}{
		{"no items", nil, 100},
		{"none uploaded", []bool{false, false}, 0},
		{"half uploaded", []bool{true, false}, 50},
		{"truncates", []bool{true, false, false}, 33},
		{"all uploaded", []bool{true, true}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := Order{}
			for _, u := range tt.uploaded {
				order.Items = append(order.Items, OrderItem{ResourcesUploaded: u})
			}
			if got := order.ResourceUploadProgress(); got != tt.want {
				t.Errorf("ResourceUploadProgress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOrderBalance(t *testing.T) {
	order := Order{
		TotalAmount: decimal.RequireFromString("5000.00"),
		PaymentRecords: []PaymentRecord{
			{Amount: decimal.RequireFromString("2000.00")},
			{Amount: decimal.RequireFromString("1500.50")},
		},
	}

	if got := order.TotalPaid(); !got.Equal(decimal.RequireFromString("3500.50")) {
		t.Errorf("TotalPaid() = %s, want 3500.50", got)
	}
	if got := order.Balance(); !got.Equal(decimal.RequireFromString("1499.50")) {
		t.Errorf("Balance() = %s, want 1499.50", got)
	}
}

func TestOrderStatusHelpers(t *testing.T) {
	for _, s := range OrderStatuses {
		if !s.Valid() {
			t.Errorf("status %s failed its own validity check", s)
		}
	}
	if OrderStatus("shipped").Valid() {
		t.Error("unknown status passed validation")
	}

	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Error("terminal statuses not marked terminal")
	}
	if StatusInProgress.Terminal() {
		t.Error("in_progress marked terminal")
	}
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{
		Quantity: 3,
		Price:    decimal.RequireFromString("149.99"),
	}
	if got := item.Subtotal(); !got.Equal(decimal.RequireFromString("449.97")) {
		t.Errorf("Subtotal() = %s, want 449.97", got)
	}
}
