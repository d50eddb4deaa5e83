package extractor

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX parses every sheet of a workbook into a single canonical
// JSON document mapping sheet name to its row records, preserving sheet
// and column order. Signals are computed per sheet and OR-combined.
func extractXLSX(data []byte) (string, Signals, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", Signals{}, err
	}
	defer f.Close()

	var b strings.Builder
	var sig Signals

	b.WriteByte('{')
	for i, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", Signals{}, err
		}

		if i > 0 {
			b.WriteByte(',')
		}
		writeJSONString(&b, sheetName)
		b.WriteByte(':')

		var sheet strings.Builder
		if len(rows) > 0 {
			serializeRecords(&sheet, rows[0], rows[1:])
		} else {
			sheet.WriteString("[]")
		}
		b.WriteString(sheet.String())

		sig = sig.or(detectSignals(sheet.String()))
	}
	b.WriteByte('}')

	return b.String(), sig, nil
}
