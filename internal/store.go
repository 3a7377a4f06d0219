package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaizM/Loss-prevention/internal/ingest"
)

// Store wraps the sqlite handle with the queries the service needs.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateReport records an upload before processing starts.
func (s *Store) CreateReport(filename, storedPath string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO reports (filename, stored_path, upload_date, status) VALUES (?, ?, ?, ?)`,
		filename, storedPath, time.Now().Unix(), ReportPending)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishReport marks a report processed with its row counts.
func (s *Store) FinishReport(reportID int64, totalRows, suspiciousCount int) error {
	_, err := s.db.Exec(
		`UPDATE reports SET status = ?, total_rows = ?, suspicious_count = ?, processed_at = ? WHERE id = ?`,
		ReportProcessed, totalRows, suspiciousCount, time.Now().Unix(), reportID)
	return err
}

// FailReport marks a report failed with the reason.
func (s *Store) FailReport(reportID int64, reason string) error {
	_, err := s.db.Exec(
		`UPDATE reports SET status = ?, error = ?, processed_at = ? WHERE id = ?`,
		ReportFailed, reason, time.Now().Unix(), reportID)
	return err
}

// GetReport fetches one report by id.
func (s *Store) GetReport(id int64) (*Report, error) {
	row := s.db.QueryRow(
		`SELECT id, filename, stored_path, upload_date, total_rows, suspicious_count, status, error, processed_at
		 FROM reports WHERE id = ?`, id)

	var r Report
	var uploadUnix int64
	var processedUnix sql.NullInt64
	err := row.Scan(&r.ID, &r.Filename, &r.StoredPath, &uploadUnix, &r.TotalRows,
		&r.SuspiciousCount, &r.Status, &r.Error, &processedUnix)
	if err != nil {
		return nil, err
	}
	r.UploadDate = time.Unix(uploadUnix, 0)
	if processedUnix.Valid {
		t := time.Unix(processedUnix.Int64, 0)
		r.ProcessedAt = &t
	}
	return &r, nil
}

// InsertTransactions stores classified transactions under a report in one
// transaction so a crash mid-batch never leaves a half-written report.
func (s *Store) InsertTransactions(reportID int64, txns []ingest.Transaction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO transactions (report_id, transaction_id, timestamp, cashier_id, register_id,
  transaction_type, amount, pump_number, raw_data, review_status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range txns {
		raw := ""
		if len(t.RawData) > 0 {
			if b, err := json.Marshal(t.RawData); err == nil {
				raw = string(b)
			}
		}
		if _, err := stmt.Exec(reportID, t.TransactionID, t.Timestamp.Unix(), t.CashierID,
			t.RegisterID, t.TransactionType, t.Amount, t.PumpNumber, raw, ReviewPending); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// TransactionFilter narrows ListTransactions. Zero values mean no filter.
type TransactionFilter struct {
	Type         string
	CashierID    string
	ReviewStatus string
	ReportID     int64
	Since        time.Time
	Until        time.Time
	Page         int
	PerPage      int
}

// ListTransactions returns a filtered, newest-first page of transactions.
func (s *Store) ListTransactions(f TransactionFilter) (*TransactionsResp, error) {
	where := []string{"1=1"}
	args := []any{}

	if f.Type != "" {
		where = append(where, "transaction_type = ?")
		args = append(args, strings.ToUpper(f.Type))
	}
	if f.CashierID != "" {
		where = append(where, "cashier_id = ?")
		args = append(args, f.CashierID)
	}
	if f.ReviewStatus != "" {
		where = append(where, "review_status = ?")
		args = append(args, f.ReviewStatus)
	}
	if f.ReportID > 0 {
		where = append(where, "report_id = ?")
		args = append(args, f.ReportID)
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since.Unix())
	}
	if !f.Until.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, f.Until.Unix())
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM transactions WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	perPage := f.PerPage
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}
	pages := (total + perPage - 1) / perPage
	offset := (page - 1) * perPage

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY timestamp DESC LIMIT ? OFFSET ?`,
		transactionColumns, cond)
	rows, err := s.db.Query(query, append(args, perPage, offset)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []StoredTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &TransactionsResp{Items: items, Total: total, Page: page, Pages: pages}, nil
}

const transactionColumns = `id, report_id, transaction_id, timestamp, cashier_id, register_id,
  transaction_type, amount, pump_number, raw_data, video_clip_path, video_processed, video_error,
  review_status, review_notes, reviewed_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*StoredTransaction, error) {
	var t StoredTransaction
	var ts int64
	err := row.Scan(&t.ID, &t.ReportID, &t.TransactionID, &ts, &t.CashierID, &t.RegisterID,
		&t.TransactionType, &t.Amount, &t.PumpNumber, &t.RawData, &t.VideoClipPath,
		&t.VideoProcessed, &t.VideoError, &t.ReviewStatus, &t.ReviewNotes, &t.ReviewedBy)
	if err != nil {
		return nil, err
	}
	t.Timestamp = time.Unix(ts, 0)
	return &t, nil
}

// GetTransaction fetches one transaction by id.
func (s *Store) GetTransaction(id int64) (*StoredTransaction, error) {
	row := s.db.QueryRow("SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	return scanTransaction(row)
}

// RelatedTransactions returns other transactions by the same cashier within
// the window around the given transaction's timestamp.
func (s *Store) RelatedTransactions(t *StoredTransaction, window time.Duration) ([]StoredTransaction, error) {
	rows, err := s.db.Query(
		"SELECT "+transactionColumns+` FROM transactions
		 WHERE cashier_id = ? AND id != ? AND timestamp BETWEEN ? AND ?
		 ORDER BY timestamp`,
		t.CashierID, t.ID, t.Timestamp.Add(-window).Unix(), t.Timestamp.Add(window).Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []StoredTransaction
	for rows.Next() {
		rt, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rt)
	}
	return items, rows.Err()
}

// UpdateReview changes a transaction's review disposition and appends the
// audit log entry in the same database transaction.
func (s *Store) UpdateReview(id int64, newStatus, notes, reviewedBy string) error {
	if !ValidReviewStatus(newStatus) {
		return fmt.Errorf("invalid review status %q", newStatus)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var oldStatus string
	if err := tx.QueryRow("SELECT review_status FROM transactions WHERE id = ?", id).Scan(&oldStatus); err != nil {
		return err
	}

	if _, err := tx.Exec(
		`UPDATE transactions SET review_status = ?, review_notes = ?, reviewed_by = ? WHERE id = ?`,
		newStatus, notes, reviewedBy, id); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO review_logs (transaction_id, old_status, new_status, notes, reviewed_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, oldStatus, newStatus, notes, reviewedBy, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

// ReviewHistory returns the audit trail for one transaction, oldest first.
func (s *Store) ReviewHistory(transactionID int64) ([]ReviewLog, error) {
	rows, err := s.db.Query(
		`SELECT id, transaction_id, old_status, new_status, notes, reviewed_by, created_at
		 FROM review_logs WHERE transaction_id = ? ORDER BY created_at`, transactionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var logs []ReviewLog
	for rows.Next() {
		var l ReviewLog
		var created int64
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.OldStatus, &l.NewStatus, &l.Notes, &l.ReviewedBy, &created); err != nil {
			return nil, err
		}
		l.CreatedAt = time.Unix(created, 0)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// PendingVideo lists transactions that still need a clip, oldest first so a
// backlog drains in order.
func (s *Store) PendingVideo(limit int) ([]StoredTransaction, error) {
	if limit < 1 {
		limit = 25
	}
	rows, err := s.db.Query(
		"SELECT "+transactionColumns+` FROM transactions
		 WHERE video_processed = 0 ORDER BY timestamp LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []StoredTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// SetClipResult records the outcome of a clip extraction attempt. Both the
// success and failure paths mark the transaction processed so it is not
// retried forever.
func (s *Store) SetClipResult(id int64, clipPath string, extractErr error) error {
	if extractErr != nil {
		msg := extractErr.Error()
		_, err := s.db.Exec(
			`UPDATE transactions SET video_processed = 1, video_error = ? WHERE id = ?`, msg, id)
		return err
	}
	_, err := s.db.Exec(
		`UPDATE transactions SET video_processed = 1, video_clip_path = ?, video_error = NULL WHERE id = ?`,
		clipPath, id)
	return err
}

// ClearClipsUnder drops clip references whose file lived under dir, after a
// retention sweep removed it. The transactions stay marked processed.
func (s *Store) ClearClipsUnder(dir string) (int64, error) {
	res, err := s.db.Exec(
		`UPDATE transactions SET video_clip_path = NULL, video_error = 'clip removed by retention'
		 WHERE video_clip_path LIKE ?`, dir+"%")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats aggregates the dashboard counters.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{
		ByType:         map[string]int{},
		ByCashier:      map[string]int{},
		ByReviewStatus: map[string]int{},
		AmountByType:   map[string]float64{},
	}

	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM transactions`).Scan(&st.TotalTransactions, &st.TotalAmount)
	if err != nil {
		return nil, err
	}

	if err := s.groupCount(`SELECT transaction_type, COUNT(*), SUM(amount) FROM transactions GROUP BY transaction_type`,
		func(key string, count int, amount float64) {
			st.ByType[key] = count
			st.AmountByType[key] = amount
		}); err != nil {
		return nil, err
	}
	if err := s.groupCount(`SELECT cashier_id, COUNT(*), 0 FROM transactions GROUP BY cashier_id`,
		func(key string, count int, _ float64) { st.ByCashier[key] = count }); err != nil {
		return nil, err
	}
	if err := s.groupCount(`SELECT review_status, COUNT(*), 0 FROM transactions GROUP BY review_status`,
		func(key string, count int, _ float64) { st.ByReviewStatus[key] = count }); err != nil {
		return nil, err
	}

	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE video_clip_path IS NOT NULL`).Scan(&st.ClipsAvailable); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM reports WHERE status = ?`, ReportProcessed).Scan(&st.ReportsProcessed); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) groupCount(query string, accept func(key string, count int, amount float64)) error {
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var count int
		var amount float64
		if err := rows.Scan(&key, &count, &amount); err != nil {
			return err
		}
		accept(key, count, amount)
	}
	return rows.Err()
}

// AllForExport returns every stored transaction, newest first, for the CSV
// export endpoint.
func (s *Store) AllForExport() ([]StoredTransaction, error) {
	rows, err := s.db.Query("SELECT " + transactionColumns + " FROM transactions ORDER BY timestamp DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []StoredTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}
