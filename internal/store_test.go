package internal

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaizM/Loss-prevention/internal/ingest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func seedReport(t *testing.T, s *Store, txns []ingest.Transaction) int64 {
	t.Helper()
	reportID, err := s.CreateReport("shift.csv", "/uploads/abc.csv")
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if err := s.InsertTransactions(reportID, txns); err != nil {
		t.Fatalf("InsertTransactions: %v", err)
	}
	if err := s.FinishReport(reportID, 100, len(txns)); err != nil {
		t.Fatalf("FinishReport: %v", err)
	}
	return reportID
}

func sampleTxns() []ingest.Transaction {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	return []ingest.Transaction{
		{Timestamp: base, CashierID: "Alice", RegisterID: "REG-1", TransactionType: "VOID",
			TransactionID: "101", Amount: 12.50},
		{Timestamp: base.Add(10 * time.Minute), CashierID: "Alice", RegisterID: "REG-1",
			TransactionType: "NO SALE", TransactionID: "102", Amount: 0},
		{Timestamp: base.Add(2 * time.Hour), CashierID: "Bob", RegisterID: "REG-2",
			TransactionType: "REFUND", TransactionID: "103", Amount: 45.00},
	}
}

func TestReportLifecycle(t *testing.T) {
	s := newTestStore(t)
	reportID := seedReport(t, s, sampleTxns())

	report, err := s.GetReport(reportID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report.Status != ReportProcessed {
		t.Errorf("Status = %q, want %q", report.Status, ReportProcessed)
	}
	if report.TotalRows != 100 || report.SuspiciousCount != 3 {
		t.Errorf("counts = %d/%d, want 100/3", report.TotalRows, report.SuspiciousCount)
	}
	if report.ProcessedAt == nil {
		t.Error("ProcessedAt not set")
	}
}

func TestFailReport(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateReport("bad.csv", "/uploads/bad.csv")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.FailReport(id, "could not identify a transaction type column"); err != nil {
		t.Fatal(err)
	}

	report, err := s.GetReport(id)
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != ReportFailed || report.Error == nil {
		t.Errorf("report = %+v, want failed with error", report)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	s := newTestStore(t)
	seedReport(t, s, sampleTxns())

	resp, err := s.ListTransactions(TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if resp.Total != 3 || len(resp.Items) != 3 {
		t.Fatalf("total = %d, items = %d, want 3/3", resp.Total, len(resp.Items))
	}
	// Newest first.
	if resp.Items[0].TransactionType != "REFUND" {
		t.Errorf("first item = %s, want REFUND", resp.Items[0].TransactionType)
	}

	byType, err := s.ListTransactions(TransactionFilter{Type: "void"})
	if err != nil {
		t.Fatal(err)
	}
	if byType.Total != 1 || byType.Items[0].TransactionID != "101" {
		t.Errorf("type filter returned %+v", byType.Items)
	}

	byCashier, err := s.ListTransactions(TransactionFilter{CashierID: "Alice"})
	if err != nil {
		t.Fatal(err)
	}
	if byCashier.Total != 2 {
		t.Errorf("cashier filter total = %d, want 2", byCashier.Total)
	}

	paged, err := s.ListTransactions(TransactionFilter{Page: 2, PerPage: 2})
	if err != nil {
		t.Fatal(err)
	}
	if paged.Pages != 2 || len(paged.Items) != 1 {
		t.Errorf("pagination: pages = %d, items = %d, want 2/1", paged.Pages, len(paged.Items))
	}
}

func TestGetTransactionAndRelated(t *testing.T) {
	s := newTestStore(t)
	seedReport(t, s, sampleTxns())

	resp, err := s.ListTransactions(TransactionFilter{Type: "VOID"})
	if err != nil || len(resp.Items) != 1 {
		t.Fatalf("seed lookup failed: %v", err)
	}
	target := resp.Items[0]

	got, err := s.GetTransaction(target.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.ReviewStatus != ReviewPending {
		t.Errorf("ReviewStatus = %q, want pending", got.ReviewStatus)
	}

	related, err := s.RelatedTransactions(got, 30*time.Minute)
	if err != nil {
		t.Fatalf("RelatedTransactions: %v", err)
	}
	// Alice's NO SALE ten minutes later is inside the window; Bob's refund
	// two hours later is not.
	if len(related) != 1 || related[0].TransactionType != "NO SALE" {
		t.Errorf("related = %+v, want the NO SALE", related)
	}

	if _, err := s.GetTransaction(9999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing id err = %v, want sql.ErrNoRows", err)
	}
}

func TestUpdateReviewWithAudit(t *testing.T) {
	s := newTestStore(t)
	seedReport(t, s, sampleTxns())
	resp, _ := s.ListTransactions(TransactionFilter{Type: "VOID"})
	id := resp.Items[0].ID

	if err := s.UpdateReview(id, ReviewFlagged, "till short", "manager"); err != nil {
		t.Fatalf("UpdateReview: %v", err)
	}
	if err := s.UpdateReview(id, ReviewEscalated, "pattern with prior shifts", "manager"); err != nil {
		t.Fatalf("UpdateReview: %v", err)
	}

	got, err := s.GetTransaction(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.ReviewStatus != ReviewEscalated {
		t.Errorf("ReviewStatus = %q, want escalated", got.ReviewStatus)
	}

	history, err := s.ReviewHistory(id)
	if err != nil {
		t.Fatalf("ReviewHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].OldStatus != ReviewPending || history[0].NewStatus != ReviewFlagged {
		t.Errorf("first entry = %+v", history[0])
	}
	if history[1].OldStatus != ReviewFlagged || history[1].NewStatus != ReviewEscalated {
		t.Errorf("second entry = %+v", history[1])
	}

	if err := s.UpdateReview(id, "bogus", "", ""); err == nil {
		t.Error("UpdateReview accepted an invalid status")
	}
}

func TestClipResultFlow(t *testing.T) {
	s := newTestStore(t)
	seedReport(t, s, sampleTxns())

	pending, err := s.PendingVideo(10)
	if err != nil {
		t.Fatalf("PendingVideo: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}
	// Oldest first so the backlog drains in order.
	if pending[0].TransactionID != "101" {
		t.Errorf("first pending = %s, want 101", pending[0].TransactionID)
	}

	if err := s.SetClipResult(pending[0].ID, "/clips/2025-01-01/VOID.mp4", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.SetClipResult(pending[1].ID, "", errors.New("no matching video source found")); err != nil {
		t.Fatal(err)
	}

	remaining, err := s.PendingVideo(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 {
		t.Errorf("remaining pending = %d, want 1", len(remaining))
	}

	done, err := s.GetTransaction(pending[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.VideoClipPath == nil || *done.VideoClipPath != "/clips/2025-01-01/VOID.mp4" {
		t.Errorf("VideoClipPath = %v", done.VideoClipPath)
	}
	failed, err := s.GetTransaction(pending[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if !failed.VideoProcessed || failed.VideoError == nil {
		t.Errorf("failed txn = %+v, want processed with error", failed)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	seedReport(t, s, sampleTxns())

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalTransactions != 3 {
		t.Errorf("TotalTransactions = %d, want 3", stats.TotalTransactions)
	}
	if stats.TotalAmount != 57.50 {
		t.Errorf("TotalAmount = %v, want 57.5", stats.TotalAmount)
	}
	if stats.ByType["VOID"] != 1 || stats.ByCashier["Alice"] != 2 {
		t.Errorf("groupings: byType=%v byCashier=%v", stats.ByType, stats.ByCashier)
	}
	if stats.ByReviewStatus[ReviewPending] != 3 {
		t.Errorf("ByReviewStatus = %v", stats.ByReviewStatus)
	}
	if stats.AmountByType["REFUND"] != 45.00 {
		t.Errorf("AmountByType = %v", stats.AmountByType)
	}
	if stats.ReportsProcessed != 1 {
		t.Errorf("ReportsProcessed = %d, want 1", stats.ReportsProcessed)
	}
}
