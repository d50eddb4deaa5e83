// Package extractor converts raw uploads of the supported file types into
// normalized text plus structural signal flags used to bias classification.
package extractor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Signals are boolean structural flags derived from extracted content.
// All default to false; for tabular formats they are computed per sheet
// and OR-combined.
type Signals struct {
	ContainsIPLiteral  bool `json:"contains_ip_literal"`
	ContainsHostToken  bool `json:"contains_host_token"`
	LooksLikeInventory bool `json:"looks_like_inventory"`
}

func (s Signals) or(other Signals) Signals {
	return Signals{
		ContainsIPLiteral:  s.ContainsIPLiteral || other.ContainsIPLiteral,
		ContainsHostToken:  s.ContainsHostToken || other.ContainsHostToken,
		LooksLikeInventory: s.LooksLikeInventory || other.LooksLikeInventory,
	}
}

// ErrExtractionEmpty reports a document that yielded no usable text at all.
var ErrExtractionEmpty = errors.New("no extractable text in document")

// UnsupportedTypeError reports a declared type outside the allow-list.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type '%s'", e.Type)
}

// ExtractionError wraps an underlying parser failure with the file type
// being processed.
type ExtractionError struct {
	Type  string
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s content: %v", strings.ToUpper(e.Type), e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// allowedTypes is the fixed extension allow-list for uploads.
var allowedTypes = map[string]bool{
	"pdf":  true,
	"docx": true,
	"xlsx": true,
	"csv":  true,
}

// TypeAllowed reports whether ext is a supported file extension.
func TypeAllowed(ext string) bool {
	return allowedTypes[ext]
}

var ipLiteralRe = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

// detectSignals scans serialized content for the structural patterns the
// classifier biases on.
func detectSignals(text string) Signals {
	lower := strings.ToLower(text)
	return Signals{
		ContainsIPLiteral:  ipLiteralRe.MatchString(text),
		ContainsHostToken:  strings.Contains(lower, "host") || strings.Contains(lower, "hostname"),
		LooksLikeInventory: strings.Contains(lower, "inventario") || strings.Contains(lower, "patrimonial"),
	}
}

// Extract converts the raw bytes of a file of the declared type into its
// normalized textual representation and signal flags.
//
// PDF and DOCX yield plain concatenated text and zero-valued signals.
// XLSX and CSV yield a canonical serialized form of their tabular content,
// stable across repeated extraction passes, with signals computed from it.
func Extract(data []byte, declaredType string) (string, Signals, error) {
	switch declaredType {
	case "pdf":
		text, err := extractPDF(data)
		if err != nil {
			if errors.Is(err, ErrExtractionEmpty) {
				return "", Signals{}, err
			}
			return "", Signals{}, &ExtractionError{Type: declaredType, Cause: err}
		}
		return text, Signals{}, nil

	case "docx":
		text, err := extractDOCX(data)
		if err != nil {
			return "", Signals{}, &ExtractionError{Type: declaredType, Cause: err}
		}
		return text, Signals{}, nil

	case "xlsx":
		text, sig, err := extractXLSX(data)
		if err != nil {
			return "", Signals{}, &ExtractionError{Type: declaredType, Cause: err}
		}
		return text, sig, nil

	case "csv":
		text, sig, err := extractCSV(data)
		if err != nil {
			return "", Signals{}, &ExtractionError{Type: declaredType, Cause: err}
		}
		return text, sig, nil

	default:
		return "", Signals{}, &UnsupportedTypeError{Type: declaredType}
	}
}
