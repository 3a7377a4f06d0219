package ingest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readWorkbook reads the first sheet of an xlsx workbook. raw switches the
// reader to unrendered cell values; skipFirst drops the first row before any
// other cleanup, for workbooks whose first row is a merged banner cell.
func readWorkbook(payload []byte, raw, skipFirst bool) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	var rows [][]string
	if raw {
		rows, err = f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	} else {
		rows, err = f.GetRows(sheets[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if skipFirst && len(rows) > 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, errors.New("no rows found in sheet")
	}
	return rows, nil
}
