package extractor

import (
	"bytes"
	"strings"

	"github.com/unidoc/unioffice/v2/document"
)

// extractDOCX concatenates paragraph text in document order. An empty
// result is legal for DOCX.
func extractDOCX(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var b strings.Builder
	for i, p := range doc.Paragraphs() {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range p.Runs() {
			b.WriteString(r.Text())
		}
	}
	return b.String(), nil
}
