// Package utils holds small filesystem helpers shared by the CLI and
// server paths that handle resume and job description files.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// textExtensions are the extensions accepted for job description files.
// Resume documents go through the extract package instead.
var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".text":     true,
}

// ValidateInputFile checks that a path names an existing, readable
// regular file before any AI spend happens on it.
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("file does not exist: %s", filename)
	case err != nil:
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	case info.IsDir():
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	return f.Close()
}

// ValidateOutputFile prepares the output path for a screening report.
// An empty path means stdout and needs no preparation; otherwise the
// parent directory is created when missing.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetFileExtension returns the lowercased extension of a filename
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsTextFile reports whether the filename carries a plain-text
// extension suitable for a job description
func IsTextFile(filename string) bool {
	return textExtensions[GetFileExtension(filename)]
}

// FormatFileSize renders an upload size for log output
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size)
	suffixes := []string{"KB", "MB", "GB", "TB"}
	suffix := suffixes[0]
	for _, s := range suffixes {
		suffix = s
		value /= unit
		if value < unit {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}
