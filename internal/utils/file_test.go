package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	tempDir := t.TempDir()
	resume := filepath.Join(tempDir, "candidate.txt")
	if err := os.WriteFile(resume, []byte("resume text"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := ValidateInputFile(resume); err != nil {
		t.Errorf("ValidateInputFile(%q) = %v, want nil", resume, err)
	}
	if err := ValidateInputFile(""); err == nil {
		t.Error("empty filename should fail")
	}
	if err := ValidateInputFile(filepath.Join(tempDir, "missing.pdf")); err == nil {
		t.Error("missing file should fail")
	}
	if err := ValidateInputFile(tempDir); err == nil {
		t.Error("directory should fail")
	}
}

func TestValidateOutputFileCreatesParent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reports", "screening.json")

	if err := ValidateOutputFile(target); err != nil {
		t.Fatalf("ValidateOutputFile failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Errorf("parent directory was not created: %v", err)
	}

	if err := ValidateOutputFile(""); err != nil {
		t.Errorf("empty path means stdout and should pass, got %v", err)
	}
}

func TestIsTextFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"posting.txt", true},
		{"posting.md", true},
		{"POSTING.TXT", true},
		{"resume.pdf", false},
		{"resume.docx", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsTextFile(tt.filename); got != tt.want {
			t.Errorf("IsTextFile(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{2 * 1024 * 1024 * 1024, "2.0 GB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
