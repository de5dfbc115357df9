// Package common holds the shared plumbing for file-based CLI commands.
package common

import (
	"fmt"
	"slices"
)

// ValidateOutputFormat validates format against configured supported formats.
// An empty supported list means no restrictions.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}
