package extractor

import (
	"encoding/json"
	"strings"
)

// serializeRecords renders data rows as a JSON array of records keyed by
// the header row, preserving column order. Encoding is done cell by cell
// so the output is canonical: the same table always serializes to the
// same bytes, which the content hash and similarity checks rely on.
func serializeRecords(b *strings.Builder, header []string, rows [][]string) {
	b.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('{')
		for j, col := range header {
			if j > 0 {
				b.WriteByte(',')
			}
			writeJSONString(b, col)
			b.WriteByte(':')
			if j < len(row) {
				writeJSONString(b, row[j])
			} else {
				writeJSONString(b, "")
			}
		}
		b.WriteByte('}')
	}
	b.WriteByte(']')
}

func writeJSONString(b *strings.Builder, s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		// json.Marshal cannot fail for a string; keep the row shape anyway.
		b.WriteString(`""`)
		return
	}
	b.Write(encoded)
}
