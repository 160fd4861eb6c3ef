// Package extract pulls plain text out of assessment report files and
// normalizes it for chunking and prompting.
package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"brdgen/internal/domain"
)

// Text extracts raw text from a PDF or DOCX file. Unrecognized
// extensions return domain.ErrUnsupportedFormat; failures of the
// underlying format reader wrap domain.ErrExtractionFailure.
func Text(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := pdfText(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailure, path, err)
		}
		return text, nil
	case ".docx", ".doc":
		text, err := docxText(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailure, path, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, path)
	}
}

var (
	controlRe    = regexp.MustCompile(`[\x00-\x08\x0B-\x1F\x7F-\x9F]`)
	pageNumberRe = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Clean normalizes extracted text: strips control characters, applies
// NFKD normalization, drops bare page-number lines and collapses
// whitespace runs into single spaces.
func Clean(text string) string {
	text = controlRe.ReplaceAllString(text, "")
	text = norm.NFKD.String(text)
	text = pageNumberRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
