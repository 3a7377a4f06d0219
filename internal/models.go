package internal

import "time"

// Report tracks one uploaded register export through its lifecycle.
type Report struct {
	ID              int64      `db:"id" json:"id"`
	Filename        string     `db:"filename" json:"filename"`
	StoredPath      string     `db:"stored_path" json:"storedPath"`
	UploadDate      time.Time  `db:"upload_date" json:"uploadDate"`
	TotalRows       int        `db:"total_rows" json:"totalRows"`
	SuspiciousCount int        `db:"suspicious_count" json:"suspiciousCount"`
	Status          string     `db:"status" json:"status"`
	Error           *string    `db:"error" json:"error,omitempty"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processedAt,omitempty"`
}

// Report status values.
const (
	ReportPending   = "pending"
	ReportProcessed = "processed"
	ReportFailed    = "failed"
)

// StoredTransaction is a persisted suspicious transaction plus its video and
// review state.
type StoredTransaction struct {
	ID              int64     `db:"id" json:"id"`
	ReportID        int64     `db:"report_id" json:"reportId"`
	TransactionID   string    `db:"transaction_id" json:"transactionId"`
	Timestamp       time.Time `db:"timestamp" json:"timestamp"`
	CashierID       string    `db:"cashier_id" json:"cashierId"`
	RegisterID      string    `db:"register_id" json:"registerId"`
	TransactionType string    `db:"transaction_type" json:"transactionType"`
	Amount          float64   `db:"amount" json:"amount"`
	PumpNumber      string    `db:"pump_number" json:"pumpNumber,omitempty"`
	RawData         string    `db:"raw_data" json:"rawData,omitempty"`

	VideoClipPath  *string `db:"video_clip_path" json:"videoClipPath,omitempty"`
	VideoProcessed bool    `db:"video_processed" json:"videoProcessed"`
	VideoError     *string `db:"video_error" json:"videoError,omitempty"`

	ReviewStatus string  `db:"review_status" json:"reviewStatus"`
	ReviewNotes  *string `db:"review_notes" json:"reviewNotes,omitempty"`
	ReviewedBy   *string `db:"reviewed_by" json:"reviewedBy,omitempty"`
}

// Review status values.
const (
	ReviewPending   = "pending"
	ReviewCleared   = "cleared"
	ReviewFlagged   = "flagged"
	ReviewEscalated = "escalated"
)

// ValidReviewStatus reports whether s is an accepted review disposition.
func ValidReviewStatus(s string) bool {
	switch s {
	case ReviewPending, ReviewCleared, ReviewFlagged, ReviewEscalated:
		return true
	}
	return false
}

// ReviewLog is one entry in the audit trail for a transaction review.
type ReviewLog struct {
	ID            int64     `db:"id" json:"id"`
	TransactionID int64     `db:"transaction_id" json:"transactionId"`
	OldStatus     string    `db:"old_status" json:"oldStatus"`
	NewStatus     string    `db:"new_status" json:"newStatus"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	ReviewedBy    string    `db:"reviewed_by" json:"reviewedBy,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// TransactionsResp is the paginated list payload.
type TransactionsResp struct {
	Items []StoredTransaction `json:"items"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Pages int                 `json:"pages"`
}

// Stats summarizes the stored suspicious transactions for the dashboard.
type Stats struct {
	TotalTransactions int                `json:"totalTransactions"`
	TotalAmount       float64            `json:"totalAmount"`
	ByType            map[string]int     `json:"byType"`
	ByCashier         map[string]int     `json:"byCashier"`
	ByReviewStatus    map[string]int     `json:"byReviewStatus"`
	AmountByType      map[string]float64 `json:"amountByType"`
	ClipsAvailable    int                `json:"clipsAvailable"`
	ReportsProcessed  int                `json:"reportsProcessed"`
}
