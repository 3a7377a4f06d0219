package ingest

import (
	"fmt"
	"log"
	"path/filepath"
)

// IngestionError is fatal for a single file: unsupported format, unreadable
// content, or no resolvable column mapping. No partial record set is returned
// alongside it.
type IngestionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *IngestionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingest %s: %s: %v", filepath.Base(e.Path), e.Reason, e.Err)
	}
	return fmt.Sprintf("ingest %s: %s", filepath.Base(e.Path), e.Reason)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// sampleRows bounds the value scan used by the column-resolution fallback.
const sampleRows = 25

// IngestFile loads one register export, resolves its columns, and classifies
// every row, returning the suspicious transactions together with the total
// cleaned row count. A malformed row is logged and skipped; a file without a
// resolvable transaction type column fails as a whole with *IngestionError.
func IngestFile(path string) ([]Transaction, int, error) {
	table, err := LoadTable(path)
	if err != nil {
		return nil, 0, &IngestionError{Path: path, Reason: "could not load tabular data", Err: err}
	}

	mapping := ResolveColumnsWithSamples(table.Headers, sample(table.Rows, sampleRows))
	if _, ok := mapping[FieldTransactionType]; !ok {
		return nil, 0, &IngestionError{Path: path, Reason: "could not identify a transaction type column"}
	}
	log.Printf("Column mapping for %s: %v", filepath.Base(path), mapping)

	totalCount := len(table.Rows)
	var results []Transaction
	for i, values := range table.Rows {
		t := classifyRow(RawRow{Headers: table.Headers, Values: values}, mapping, totalCount, i)
		if t != nil {
			results = append(results, *t)
		}
	}

	log.Printf("Ingested %s: %d suspicious of %d total rows", filepath.Base(path), len(results), totalCount)
	return results, totalCount, nil
}

// classifyRow isolates per-row failures: one bad row must never abort the
// file.
func classifyRow(row RawRow, mapping ColumnMapping, totalCount, index int) (t *Transaction) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error processing row %d: %v", index, r)
			t = nil
		}
	}()
	return Classify(row, mapping, totalCount)
}

func sample(rows [][]string, n int) [][]string {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}
