package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestIngestFile(t *testing.T) {
	payload := []byte("Date,Cashier,Type,Amount\n" +
		"2025-01-01 10:00:00,Alice,VOID,$12.50\n" +
		"2025-01-01 10:05:00,Bob,SALE,$3.00\n" +
		"2025-01-01 10:10:00,Alice,NO SALE,\n")
	path := writeTemp(t, "shift.csv", payload)

	txns, total, err := IngestFile(path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d suspicious transactions, want 2", len(txns))
	}

	first := txns[0]
	if first.TransactionType != "VOID" {
		t.Errorf("TransactionType = %q, want VOID", first.TransactionType)
	}
	if first.Amount != 12.50 {
		t.Errorf("Amount = %v, want 12.5", first.Amount)
	}
	if first.CashierID != "Alice" {
		t.Errorf("CashierID = %q, want Alice", first.CashierID)
	}
	// No register or transaction id columns: synthesized from the cashier.
	if first.RegisterID != "REG-1" {
		t.Errorf("RegisterID = %q, want REG-1", first.RegisterID)
	}
	want := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, want)
	}
	if first.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", first.TotalCount)
	}

	if txns[1].TransactionType != "NO SALE" {
		t.Errorf("second TransactionType = %q, want NO SALE", txns[1].TransactionType)
	}
	if txns[1].Amount != 0 {
		t.Errorf("second Amount = %v, want 0", txns[1].Amount)
	}
}

func TestIngestFileNoTypeColumn(t *testing.T) {
	payload := []byte("Date,Qty,Sku\n2025-01-01,2,ABC\n2025-01-02,1,DEF\n")
	path := writeTemp(t, "inventory.csv", payload)

	_, _, err := IngestFile(path)
	if err == nil {
		t.Fatal("IngestFile succeeded without a transaction type column")
	}
	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("err = %T, want *IngestionError", err)
	}
}

func TestIngestFileContentResolvedType(t *testing.T) {
	// No header matches a type pattern; the column is found from its values.
	payload := []byte("Entry Time,B,C\n" +
		"2025-01-01 09:00:00,VOID,4.00\n" +
		"2025-01-01 09:30:00,SALE,2.00\n")
	path := writeTemp(t, "cryptic.csv", payload)

	txns, total, err := IngestFile(path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(txns) != 1 {
		t.Fatalf("got %d suspicious transactions, want 1", len(txns))
	}
	if txns[0].TransactionType != "VOID" {
		t.Errorf("TransactionType = %q, want VOID", txns[0].TransactionType)
	}
}

func TestIngestFileRowsWithoutTimestampDropped(t *testing.T) {
	payload := []byte("Date,Type\n" +
		"garbage,VOID\n" +
		"2025-01-01 10:00:00,VOID\n")
	path := writeTemp(t, "partial.csv", payload)

	txns, total, err := IngestFile(path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(txns) != 1 {
		t.Errorf("got %d transactions, want 1 (bad-timestamp row dropped)", len(txns))
	}
}
