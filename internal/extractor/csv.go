package extractor

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// extractCSV parses the file as a single tabular sheet and serializes its
// rows as a canonical JSON record array. Signals are computed once over
// the serialized text.
func extractCSV(data []byte) (string, Signals, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	rows, err := reader.ReadAll()
	if err != nil {
		return "", Signals{}, err
	}

	var b strings.Builder
	if len(rows) > 0 {
		serializeRecords(&b, rows[0], rows[1:])
	} else {
		b.WriteString("[]")
	}

	text := b.String()
	return text, detectSignals(text), nil
}
