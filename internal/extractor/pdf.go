package extractor

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ramosjr18/categorizar-docs/pkg/logger"
)

var log = logger.New("extractor", "")

// extractPDF concatenates the extracted text of every page in page order.
// A page that yields no text is skipped; only a document with no text on
// any page is an error. Failed pages collapse to empty so joinPageTexts
// reports each skipped page exactly once.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return joinPageTexts(pages)
}

// joinPageTexts joins non-empty page texts with newlines, preserving page
// order. It returns ErrExtractionEmpty when no page contributed any text.
func joinPageTexts(pages []string) (string, error) {
	var kept []string
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			log.WithField("page", i+1).Warn("pdf page has no extractable text")
			continue
		}
		kept = append(kept, text)
	}

	joined := strings.TrimSpace(strings.Join(kept, "\n"))
	if joined == "" {
		return "", ErrExtractionEmpty
	}
	return joined, nil
}
