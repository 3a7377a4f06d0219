package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/kaizM/Loss-prevention/internal/strategy"
)

// ErrUnsupportedFormat is returned for extensions other than csv/xls/xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Table is the cleaned tabular content of one export file: header noise
// stripped, fully-empty rows and columns removed.
type Table struct {
	Headers []string
	Rows    [][]string
}

// headerKeywords mark the real header row inside exports that prepend store
// name / date-range banner lines above the data.
var headerKeywords = []string{"TRAN DATE", "TRAN TYPE", "TENDER", "GROSS"}

// maxHeaderScanRows bounds the banner scan.
const maxHeaderScanRows = 10

// LoadTable reads a register export into a cleaned Table. CSV files go
// through an encoding fallback chain; Excel files through a reader strategy
// chain. The first strategy that produces rows wins.
func LoadTable(path string) (*Table, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records [][]string
	var via string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, via, err = decodeCSV(payload)
	case ".xls", ".xlsx":
		records, via, err = decodeExcel(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %s via %s strategy (%d raw rows)", filepath.Base(path), via, len(records))

	return cleanTable(records)
}

// decodeCSV tries encodings in the order seen in field exports. latin-1 and
// iso-8859-1 decode any byte sequence, so the later tiers rarely trigger, but
// the chain keeps failure accounting uniform.
func decodeCSV(payload []byte) ([][]string, string, error) {
	steps := []strategy.Step[[][]string]{
		{Name: "utf-8", Run: func() ([][]string, error) {
			if !utf8.Valid(payload) {
				return nil, errors.New("invalid utf-8 byte sequence")
			}
			return parseCSV(payload)
		}},
		{Name: "latin-1", Run: func() ([][]string, error) {
			return parseCSVEncoded(payload, charmap.ISO8859_1)
		}},
		{Name: "cp1252", Run: func() ([][]string, error) {
			return parseCSVEncoded(payload, charmap.Windows1252)
		}},
		{Name: "iso-8859-1", Run: func() ([][]string, error) {
			return parseCSVEncoded(payload, charmap.ISO8859_1)
		}},
	}
	return strategy.Run(steps)
}

func parseCSVEncoded(payload []byte, cm *charmap.Charmap) ([][]string, error) {
	decoded, err := decodeCharmap(payload, cm)
	if err != nil {
		return nil, err
	}
	return parseCSV(decoded)
}

func decodeCharmap(payload []byte, cm *charmap.Charmap) ([]byte, error) {
	decoder := cm.NewDecoder()
	return decoder.Bytes(payload)
}

func parseCSV(payload []byte) ([][]string, error) {
	payload = bytes.TrimPrefix(payload, byteOrderMark)
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("no rows found")
	}
	return records, nil
}

// decodeExcel tries the spreadsheet readers in order: the standard xlsx
// reader, a raw-cell variant (formatted dates come back unrendered on some
// exports), a delimited-text fallback for legacy ".xls" files that are
// actually tab- or comma-separated text, and finally a skip-first-row
// variant for workbooks with a merged banner cell the reader chokes on.
func decodeExcel(payload []byte) ([][]string, string, error) {
	steps := []strategy.Step[[][]string]{
		{Name: "xlsx", Run: func() ([][]string, error) {
			return readWorkbook(payload, false, false)
		}},
		{Name: "xlsx-raw", Run: func() ([][]string, error) {
			return readWorkbook(payload, true, false)
		}},
		{Name: "delimited-text", Run: func() ([][]string, error) {
			return readDelimitedText(payload)
		}},
		{Name: "xlsx-skip-first", Run: func() ([][]string, error) {
			return readWorkbook(payload, false, true)
		}},
	}
	return strategy.Run(steps)
}

func readDelimitedText(payload []byte) ([][]string, error) {
	if !utf8.Valid(payload) {
		decoded, err := decodeCharmap(payload, charmap.Windows1252)
		if err != nil {
			return nil, err
		}
		payload = decoded
	}
	if bytes.ContainsRune(payload, 0) {
		return nil, errors.New("binary content, not delimited text")
	}
	if bytes.ContainsRune(payload, '\t') {
		reader := csv.NewReader(bytes.NewReader(payload))
		reader.Comma = '\t'
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		records, err := reader.ReadAll()
		if err == nil && len(records) > 0 {
			return records, nil
		}
	}
	return parseCSV(payload)
}

// cleanTable locates the real header row, drops everything above it, and
// strips fully-empty rows and columns.
func cleanTable(records [][]string) (*Table, error) {
	headerIdx := findHeaderRow(records)
	if headerIdx > 0 {
		records = records[headerIdx:]
	}
	if len(records) == 0 {
		return nil, errors.New("no header row detected")
	}

	headers := records[0]
	rows := records[1:]

	// Pad ragged rows to header width before column analysis.
	for i := range rows {
		rows[i] = padRow(rows[i], len(headers))
	}

	keep := nonEmptyColumns(headers, rows)
	headers = projectRow(headers, keep)
	projected := make([][]string, 0, len(rows))
	for _, row := range rows {
		row = projectRow(row, keep)
		if rowHasContent(row) {
			projected = append(projected, row)
		}
	}

	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	if len(headers) == 0 {
		return nil, errors.New("no columns found after cleanup")
	}
	return &Table{Headers: headers, Rows: projected}, nil
}

// findHeaderRow scans the first rows for the one carrying known header
// keywords. Returns 0 when no banner noise is present.
func findHeaderRow(records [][]string) int {
	limit := len(records)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}
	for i := 0; i < limit; i++ {
		joined := strings.ToUpper(strings.Join(records[i], " "))
		for _, kw := range headerKeywords {
			if strings.Contains(joined, kw) {
				return i
			}
		}
	}
	return 0
}

func nonEmptyColumns(headers []string, rows [][]string) []int {
	var keep []int
	for col := range headers {
		if strings.TrimSpace(headers[col]) != "" {
			keep = append(keep, col)
			continue
		}
		for _, row := range rows {
			if col < len(row) && strings.TrimSpace(row[col]) != "" {
				keep = append(keep, col)
				break
			}
		}
	}
	return keep
}

func projectRow(row []string, keep []int) []string {
	out := make([]string, 0, len(keep))
	for _, col := range keep {
		if col < len(row) {
			out = append(out, row[col])
		} else {
			out = append(out, "")
		}
	}
	return out
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
