package common

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"talentsift/internal/errors"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestProcessor() *FileProcessor {
	return NewFileProcessor(errors.NewLogger(slog.LevelError))
}

func TestValidateResumeFiles(t *testing.T) {
	tempDir := t.TempDir()
	resume := writeTestFile(t, tempDir, "candidate.txt", "Experienced Go engineer")

	if err := newTestProcessor().ValidateResumeFiles(resume); err != nil {
		t.Errorf("ValidateResumeFiles(%q) = %v, want nil", resume, err)
	}
}

func TestValidateResumeFilesUnsupportedFormat(t *testing.T) {
	tempDir := t.TempDir()
	image := writeTestFile(t, tempDir, "headshot.png", "not a resume")

	err := newTestProcessor().ValidateResumeFiles(image)
	if err == nil {
		t.Fatal("a .png upload should be rejected before screening")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeUnsupportedFormat {
		t.Errorf("error code = %q, want %q", appErr.Code, errors.ErrCodeUnsupportedFormat)
	}
}

func TestValidateResumeFilesMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nobody.pdf")

	if err := newTestProcessor().ValidateResumeFiles(missing); err == nil {
		t.Error("a missing resume path should fail validation")
	}
}

func TestValidateAndReadFiles(t *testing.T) {
	tempDir := t.TempDir()
	jd := writeTestFile(t, tempDir, "posting.txt", "Senior Go engineer, Kubernetes required")

	contents, err := newTestProcessor().ValidateAndReadFiles(jd)
	if err != nil {
		t.Fatalf("ValidateAndReadFiles failed: %v", err)
	}
	if len(contents) != 1 || !strings.Contains(contents[0], "Kubernetes") {
		t.Errorf("unexpected contents: %v", contents)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := newTestProcessor().ReadFile(filepath.Join(t.TempDir(), "gone.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeFileNotFound {
		t.Errorf("error code = %q, want %q", appErr.Code, errors.ErrCodeFileNotFound)
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reports", "batch.json")

	if err := newTestProcessor().WriteFile(target, "{}"); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("written content = %q, want {}", data)
	}
}
