// Package extract pulls plain text out of uploaded resume documents.
package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"talentsift/internal/errors"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Supported resume file extensions
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".txt":  true,
}

// IsSupportedFormat reports whether the filename has a supported extension
func IsSupportedFormat(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SupportedFormats returns the supported extensions without the leading dot
func SupportedFormats() []string {
	return []string{"pdf", "docx", "doc", "txt"}
}

// ExtractFile reads a resume document from disk and extracts its text
func ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read resume file", err).
			WithContext("path", path)
	}
	return ExtractBytes(data, path)
}

// ExtractBytes extracts plain text from resume document bytes. The format is
// chosen from the filename extension. An unsupported extension is a distinct
// validation error rather than an extraction failure.
func ExtractBytes(data []byte, filename string) (string, error) {
	var text string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = extractPDFText(data)
	case ".docx", ".doc":
		text, err = extractDocxText(data)
	case ".txt":
		text = string(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			"unsupported resume format", nil).
			WithContext("filename", filename)
	}

	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeExtractionFailed, "failed to extract resume text", err).
			WithContext("filename", filename)
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.NewIOError(errors.ErrCodeEmptyDocument, "resume document contains no extractable text", nil).
			WithContext("filename", filename)
	}

	return text, nil
}

// extractPDFText extracts text from every non-null page of a PDF
func extractPDFText(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(reader.Len()))
	if err != nil {
		return "", err
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

var docxRunPattern = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
var docxParagraphEnd = regexp.MustCompile(`</w:p>`)

// extractDocxText extracts text runs from a DOCX document. The document XML
// is flattened to plain text with paragraph boundaries kept as newlines.
func extractDocxText(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	doc, err := docx.ReadDocxFromMemory(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	// Keep paragraph boundaries as synthetic runs so they survive flattening
	content := doc.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "<w:t>\n</w:t>")

	var textBuilder strings.Builder
	for _, match := range docxRunPattern.FindAllStringSubmatch(content, -1) {
		textBuilder.WriteString(match[1])
	}

	text := textBuilder.String()
	if text == "" {
		// Fall back to the raw content for documents without standard runs
		text = content
	}
	return text, nil
}
