package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"talentsift/internal/errors"
)

func TestIsSupportedFormat(t *testing.T) {
	tests := []struct {
		filename  string
		supported bool
	}{
		{"resume.pdf", true},
		{"resume.PDF", true},
		{"resume.docx", true},
		{"resume.doc", true},
		{"resume.txt", true},
		{"resume.png", false},
		{"resume.rtf", false},
		{"resume", false},
		{"archive.tar.gz", false},
	}

	for _, tt := range tests {
		if got := IsSupportedFormat(tt.filename); got != tt.supported {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", tt.filename, got, tt.supported)
		}
	}
}

func TestExtractBytesPlainText(t *testing.T) {
	content := "Alice Smith\nSenior Go Engineer\n10 years of backend experience"

	text, err := ExtractBytes([]byte(content), "alice.txt")
	if err != nil {
		t.Fatalf("ExtractBytes failed: %v", err)
	}
	if text != content {
		t.Errorf("text not preserved, got %q", text)
	}
}

func TestExtractBytesUnsupportedFormat(t *testing.T) {
	_, err := ExtractBytes([]byte("data"), "photo.png")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeUnsupportedFormat {
		t.Errorf("expected code %s, got %s", errors.ErrCodeUnsupportedFormat, appErr.Code)
	}
}

func TestExtractBytesEmptyDocument(t *testing.T) {
	_, err := ExtractBytes([]byte("   \n\t  \n"), "blank.txt")
	if err == nil {
		t.Fatal("expected error for whitespace-only document")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeEmptyDocument {
		t.Errorf("expected code %s, got %s", errors.ErrCodeEmptyDocument, appErr.Code)
	}
}

func TestExtractBytesCorruptPDF(t *testing.T) {
	_, err := ExtractBytes([]byte("not a real pdf"), "broken.pdf")
	if err == nil {
		t.Fatal("expected error for corrupt PDF data")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeExtractionFailed {
		t.Errorf("expected code %s, got %s", errors.ErrCodeExtractionFailed, appErr.Code)
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	content := "Bob Jones\nPlatform Engineer"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	text, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if !strings.Contains(text, "Bob Jones") {
		t.Errorf("extracted text missing content, got %q", text)
	}
}

func TestExtractFileMissing(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeFileNotReadable {
		t.Errorf("expected code %s, got %s", errors.ErrCodeFileNotReadable, appErr.Code)
	}
}
