package common

import (
	"fmt"
	"slices"
)

// ValidateOutputFormat checks a requested report format against the
// configured allow-list. An empty list accepts anything.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the configured report formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
