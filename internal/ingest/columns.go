package ingest

import (
	"strings"
)

// Field names a semantic column in a register export.
type Field string

const (
	FieldTimestamp       Field = "timestamp"
	FieldCashierID       Field = "cashier_id"
	FieldRegisterID      Field = "register_id"
	FieldTransactionType Field = "transaction_type"
	FieldTransactionID   Field = "transaction_id"
	FieldAmount          Field = "amount"
	FieldPumpNumber      Field = "pump_number"
	FieldTender          Field = "tender"
	FieldDiscount        Field = "discount"
	FieldTax             Field = "tax"
	FieldNetAmount       Field = "net_amount"
)

// ColumnMapping resolves semantic fields to raw header names for one file.
type ColumnMapping map[Field]string

// columnPatterns maps each field to candidate header substrings, tried in
// order. Register exports are not standardized across store configurations;
// supporting a new layout means adding entries here, not touching control flow.
var columnPatterns = map[Field][]string{
	FieldTimestamp:       {"tran date", "date", "time", "datetime", "timestamp", "trans_date", "trans_time"},
	FieldCashierID:       {"cashier", "cashier_id", "employee", "emp_id", "clerk", "operator"},
	FieldRegisterID:      {"register", "reg_id", "terminal", "pos_id", "station"},
	FieldTransactionType: {"tran type", "trans_type", "transaction_type", "type", "description", "desc"},
	FieldTransactionID:   {"trans_id", "transaction_id", "receipt", "receipt_id", "id"},
	FieldAmount:          {"amount", "total", "gross", "value", "sum", "price"},
	FieldPumpNumber:      {"pump", "pump_no", "pump_number", "dispenser", "fueling_point"},
	FieldTender:          {"tender", "payment", "pay_type"},
	FieldDiscount:        {"discount", "disc"},
	FieldTax:             {"tax"},
	FieldNetAmount:       {"net"},
}

// fieldOrder fixes the resolution order so runs are deterministic regardless
// of map iteration.
var fieldOrder = []Field{
	FieldTimestamp,
	FieldCashierID,
	FieldRegisterID,
	FieldTransactionType,
	FieldTransactionID,
	FieldAmount,
	FieldPumpNumber,
	FieldTender,
	FieldDiscount,
	FieldTax,
	FieldNetAmount,
}

// ResolveColumns maps raw headers to semantic fields. For each field the
// candidate patterns are tried in order and the field resolves to the first
// header (in original order) containing the pattern, case-insensitively.
// Once resolved a field is never reconsidered: stability over optimality.
func ResolveColumns(headers []string) ColumnMapping {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	mapping := make(ColumnMapping)
	for _, field := range fieldOrder {
		for _, pattern := range columnPatterns[field] {
			for i, h := range lowered {
				if strings.Contains(h, pattern) {
					mapping[field] = headers[i]
					break
				}
			}
			if _, ok := mapping[field]; ok {
				break
			}
		}
	}
	return mapping
}

// fallback keyword tables for content-based resolution when the header pass
// comes up short.
var fallbackNameKeywords = map[Field][]string{
	FieldTimestamp:  {"date", "time"},
	FieldAmount:     {"amount", "amt", "total"},
	FieldCashierID:  {"cashier", "clerk", "emp"},
	FieldRegisterID: {"register", "reg", "terminal"},
}

// ResolveColumnsWithSamples runs the header-based pass and, when no
// transaction type column was found, falls back to scanning sampled cell
// values: a column whose samples contain a known suspicious-type keyword
// becomes the transaction_type mapping. Column names are also re-scanned for
// date/time/amount/cashier/register keywords to fill remaining gaps.
func ResolveColumnsWithSamples(headers []string, samples [][]string) ColumnMapping {
	mapping := ResolveColumns(headers)
	if _, ok := mapping[FieldTransactionType]; ok {
		return mapping
	}

	for col, header := range headers {
		if containsSuspiciousSample(samples, col) {
			mapping[FieldTransactionType] = header
			break
		}
	}

	for _, field := range []Field{FieldTimestamp, FieldAmount, FieldCashierID, FieldRegisterID} {
		if _, ok := mapping[field]; ok {
			continue
		}
		for i, h := range headers {
			lower := strings.ToLower(strings.TrimSpace(h))
			for _, kw := range fallbackNameKeywords[field] {
				if strings.Contains(lower, kw) {
					mapping[field] = headers[i]
					break
				}
			}
			if _, ok := mapping[field]; ok {
				break
			}
		}
	}

	return mapping
}

func containsSuspiciousSample(samples [][]string, col int) bool {
	for _, row := range samples {
		if col >= len(row) {
			continue
		}
		value := strings.ToUpper(strings.TrimSpace(row[col]))
		if value == "" {
			continue
		}
		for _, kw := range suspiciousKeywords {
			if strings.Contains(value, kw) {
				return true
			}
		}
	}
	return false
}
