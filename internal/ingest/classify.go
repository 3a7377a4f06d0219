package ingest

import (
	"strconv"
	"strings"
	"time"
)

// Transaction is the canonical record for a flagged register event. Timestamp
// and TransactionType are always populated; everything else degrades to a
// default rather than failing the row.
type Transaction struct {
	Timestamp       time.Time         `json:"timestamp"`
	CashierID       string            `json:"cashierId"`
	RegisterID      string            `json:"registerId"`
	TransactionType string            `json:"transactionType"`
	TransactionID   string            `json:"transactionId"`
	Amount          float64           `json:"amount"`
	PumpNumber      string            `json:"pumpNumber,omitempty"`
	RawData         map[string]string `json:"rawData,omitempty"`
	TotalCount      int               `json:"totalCount"`
}

// CashierUnknown is the sentinel stored when an export has no usable cashier.
const CashierUnknown = "N/A"

// suspiciousExact holds types that are suspicious on exact match.
var suspiciousExact = map[string]struct{}{
	"NO SALE":    {},
	"VOID":       {},
	"REFUND":     {},
	"RETURN":     {},
	"CANCEL":     {},
	"ADJUSTMENT": {},
}

// suspiciousKeywords flags types by substring; broader than the exact set to
// catch register-specific spellings like VOID_TRANSACTION.
var suspiciousKeywords = []string{
	"VOID",
	"NO SALE",
	"REFUND",
	"DISCOUNT REMOVED",
	"NO_SALE",
	"VOID_TRANSACTION",
	"CANCEL",
	"COMP",
	"RETURN",
	"ADJUSTMENT",
}

// timestampLayouts are tried in order against the mapped timestamp cell.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"01-02-2006 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"2006-01-02",
	"01/02/2006",
}

// fallbackLayouts are the best-effort pass when none of the fixed formats hit.
var fallbackLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006 15:04",
	"02-Jan-2006 15:04:05",
}

// RawRow pairs the cleaned headers with one record's values, preserving
// column order. It only lives for the duration of a pipeline traversal.
type RawRow struct {
	Headers []string
	Values  []string
}

// Get returns the trimmed value under a raw header name, or "".
func (r RawRow) Get(header string) string {
	for i, h := range r.Headers {
		if h == header && i < len(r.Values) {
			return strings.TrimSpace(r.Values[i])
		}
	}
	return ""
}

// Map copies the row into a header→value map for audit storage.
func (r RawRow) Map() map[string]string {
	m := make(map[string]string, len(r.Headers))
	for i, h := range r.Headers {
		if i < len(r.Values) {
			m[h] = r.Values[i]
		} else {
			m[h] = ""
		}
	}
	return m
}

// IsSuspicious reports whether a normalized transaction type should be
// flagged for review.
func IsSuspicious(transType string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(transType))
	if normalized == "" {
		return false
	}
	if _, ok := suspiciousExact[normalized]; ok {
		return true
	}
	for _, kw := range suspiciousKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// Classify decides whether one row is suspicious and normalizes it into a
// Transaction. Non-suspicious rows and rows without a parseable timestamp
// return nil; they are filtered, not errors.
func Classify(row RawRow, mapping ColumnMapping, totalCount int) *Transaction {
	transType := strings.ToUpper(strings.TrimSpace(row.Get(mapping[FieldTransactionType])))
	if !IsSuspicious(transType) {
		return nil
	}

	ts, ok := parseTimestamp(row.Get(mapping[FieldTimestamp]))
	if !ok {
		return nil
	}

	t := &Transaction{
		Timestamp:       ts,
		TransactionType: transType,
		CashierID:       normalizeCashier(row.Get(mapping[FieldCashierID])),
		Amount:          ParseAmount(row.Get(mapping[FieldAmount])),
		PumpNumber:      row.Get(mapping[FieldPumpNumber]),
		RawData:         row.Map(),
		TotalCount:      totalCount,
	}
	t.TransactionID = normalizeTransactionID(row.Get(mapping[FieldTransactionID]), ts)
	t.RegisterID = synthesizeRegister(row.Get(mapping[FieldRegisterID]), row.Get(mapping[FieldTransactionID]), t.CashierID)
	return t
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	for _, layout := range fallbackLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// isBlankish treats empty cells and pandas-style null spellings as missing.
func isBlankish(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "nan", "none":
		return true
	}
	return false
}

func normalizeCashier(raw string) string {
	if isBlankish(raw) {
		return CashierUnknown
	}
	return strings.TrimSpace(raw)
}

func normalizeTransactionID(raw string, ts time.Time) string {
	if isBlankish(raw) {
		return "TXN-" + ts.Format("150405")
	}
	return strings.TrimSpace(raw)
}

// synthesizeRegister derives a register id when the export has none. The
// synthesis is deterministic: the same row always lands on the same register.
func synthesizeRegister(rawRegister, rawTransactionID, cashierID string) string {
	if !isBlankish(rawRegister) {
		return strings.TrimSpace(rawRegister)
	}
	if !isBlankish(rawTransactionID) {
		if n, err := strconv.ParseInt(strings.TrimSpace(rawTransactionID), 10, 64); err == nil {
			return "REG-" + strconv.FormatInt(n%3+1, 10)
		}
	}
	if cashierID != CashierUnknown {
		return "REG-1"
	}
	return "REG-2"
}

// ParseAmount parses a monetary cell. Currency symbols and thousands
// separators are stripped; anything unparseable yields 0.0, never an error.
func ParseAmount(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0.0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0.0
	}
	return f
}
