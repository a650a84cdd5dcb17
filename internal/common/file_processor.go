package common

import (
	"fmt"
	"os"
	"path/filepath"

	"talentsift/internal/errors"
	"talentsift/internal/extract"
	"talentsift/internal/utils"
)

// FileProcessor reads job descriptions and writes screening reports,
// wrapping filesystem failures in typed errors
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a file processor
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile returns the file content, distinguishing missing files from
// unreadable ones
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	content, err := os.ReadFile(filename)
	switch {
	case err == nil:
		return string(content), nil
	case os.IsNotExist(err):
		return "", errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	default:
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
}

// WriteFile writes a report, creating parent directories as needed
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}
	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateAndReadFiles validates and reads text inputs such as the job
// description, warning when a file doesn't look like text
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))
	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if !utils.IsTextFile(filename) {
			if fp.logger != nil {
				fp.logger.Warn("File may not be a text file", "filename", filename)
			} else {
				fmt.Fprintf(os.Stderr, "Warning: %s may not be a text file\n", filename)
			}
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}
	return contents, nil
}

// ValidateResumeFiles checks that every resume path exists and carries a
// supported document extension before any AI spend happens.
func (fp *FileProcessor) ValidateResumeFiles(filenames ...string) error {
	for _, filename := range filenames {
		if err := utils.ValidateInputFile(filename); err != nil {
			return errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}
		if !extract.IsSupportedFormat(filename) {
			return errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
				fmt.Sprintf("Unsupported resume format: %s (supported: %v)",
					filename, extract.SupportedFormats()), nil)
		}
	}
	return nil
}

// ValidateOutputFile accepts "" as stdout
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
