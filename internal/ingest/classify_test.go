package ingest

import (
	"testing"
	"time"
)

func TestIsSuspicious(t *testing.T) {
	tests := []struct {
		transType string
		want      bool
	}{
		{"NO SALE", true},
		{"no sale", true},
		{"  Void  ", true},
		{"REFUND", true},
		{"VOID_TRANSACTION", true},
		{"DISCOUNT REMOVED", true},
		{"COMP MEAL", true},
		{"SALE", false},
		{"FUEL PREPAY", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSuspicious(tt.transType); got != tt.want {
			t.Errorf("IsSuspicious(%q) = %v, want %v", tt.transType, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"$1,234.56", 1234.56},
		{"12.50", 12.50},
		{" $5 ", 5},
		{"-3.25", -3.25},
		{"", 0},
		{"nan-garbage", 0},
		{"free", 0},
	}
	for _, tt := range tests {
		if got := ParseAmount(tt.raw); got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSynthesizeRegister(t *testing.T) {
	tests := []struct {
		name     string
		register string
		transID  string
		cashier  string
		want     string
	}{
		{"register present", "REG-9", "101", "Alice", "REG-9"},
		{"from numeric transaction id", "", "101", "Alice", "REG-3"},
		{"numeric id divisible by three", "", "102", "Alice", "REG-1"},
		{"non-numeric id with cashier", "", "R-101", "Alice", "REG-1"},
		{"no id, cashier known", "", "", "Alice", "REG-1"},
		{"nothing known", "", "", CashierUnknown, "REG-2"},
		{"nan register treated as blank", "nan", "101", "Alice", "REG-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := synthesizeRegister(tt.register, tt.transID, tt.cashier); got != tt.want {
				t.Errorf("synthesizeRegister(%q, %q, %q) = %q, want %q",
					tt.register, tt.transID, tt.cashier, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"2025-01-15 14:30:00", time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC), true},
		{"01/15/2025 14:30:00", time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC), true},
		{"2025-01-15", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2025-01-15T14:30:00Z", time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC), true},
		{"Jan 15, 2025", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := parseTimestamp(tt.raw)
		if ok != tt.ok {
			t.Errorf("parseTimestamp(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	headers := []string{"Date", "Cashier", "Type", "Amount", "Trans ID"}
	mapping := ColumnMapping{
		FieldTimestamp:       "Date",
		FieldCashierID:       "Cashier",
		FieldTransactionType: "Type",
		FieldAmount:          "Amount",
		FieldTransactionID:   "Trans ID",
	}

	t.Run("suspicious row normalized", func(t *testing.T) {
		row := RawRow{Headers: headers, Values: []string{"2025-01-01 10:00:00", "Alice", "VOID", "$12.50", "101"}}
		got := Classify(row, mapping, 42)
		if got == nil {
			t.Fatal("Classify returned nil for a suspicious row")
		}
		if got.TransactionType != "VOID" {
			t.Errorf("TransactionType = %q, want VOID", got.TransactionType)
		}
		if got.Amount != 12.50 {
			t.Errorf("Amount = %v, want 12.5", got.Amount)
		}
		if got.CashierID != "Alice" {
			t.Errorf("CashierID = %q, want Alice", got.CashierID)
		}
		if got.RegisterID != "REG-3" {
			t.Errorf("RegisterID = %q, want REG-3", got.RegisterID)
		}
		if got.TransactionID != "101" {
			t.Errorf("TransactionID = %q, want 101", got.TransactionID)
		}
		if got.TotalCount != 42 {
			t.Errorf("TotalCount = %d, want 42", got.TotalCount)
		}
	})

	t.Run("non-suspicious row filtered", func(t *testing.T) {
		row := RawRow{Headers: headers, Values: []string{"2025-01-01 10:00:00", "Alice", "SALE", "9.99", "102"}}
		if got := Classify(row, mapping, 1); got != nil {
			t.Errorf("Classify returned %+v for a normal sale, want nil", got)
		}
	})

	t.Run("unparseable timestamp filtered", func(t *testing.T) {
		row := RawRow{Headers: headers, Values: []string{"yesterday", "Alice", "VOID", "1.00", "103"}}
		if got := Classify(row, mapping, 1); got != nil {
			t.Errorf("Classify returned %+v without a parseable timestamp, want nil", got)
		}
	})

	t.Run("missing cashier and id synthesized", func(t *testing.T) {
		row := RawRow{Headers: headers, Values: []string{"2025-01-01 10:05:30", "nan", "NO SALE", "", ""}}
		got := Classify(row, mapping, 1)
		if got == nil {
			t.Fatal("Classify returned nil")
		}
		if got.CashierID != CashierUnknown {
			t.Errorf("CashierID = %q, want %q", got.CashierID, CashierUnknown)
		}
		if got.TransactionID != "TXN-100530" {
			t.Errorf("TransactionID = %q, want TXN-100530", got.TransactionID)
		}
		if got.RegisterID != "REG-2" {
			t.Errorf("RegisterID = %q, want REG-2", got.RegisterID)
		}
		if got.Amount != 0 {
			t.Errorf("Amount = %v, want 0", got.Amount)
		}
	})
}
