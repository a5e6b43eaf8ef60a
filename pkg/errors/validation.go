package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxNameLength bounds user supplied names used as file or folder names.
const maxNameLength = 200

// ValidateExportName validates a user supplied export name before it is used
// as a folder and sheet file name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 200 characters
func ValidateExportName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "export name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "export name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "export name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidName, "export name cannot contain path separators")
	}
	if name == "." || name == ".." {
		return New(ErrCodeInvalidName, "export name cannot be %q", name)
	}
	return nil
}

// ValidateAffix validates a file name prefix, suffix or separator.
// Empty values are allowed.
func ValidateAffix(kind, value string) error {
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "%s contains invalid control characters", kind)
		}
	}
	if strings.ContainsAny(value, `/\<>:"|?*`) {
		return New(ErrCodeInvalidName, "%s contains characters not allowed in file names: %q", kind, value)
	}
	return nil
}

// ValidateExportDir validates the export directory path.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Must not resolve to the filesystem root
func ValidateExportDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidExportDirectory, "export directory is required")
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidExportDirectory, "export directory contains invalid characters")
		}
	}
	clean := filepath.Clean(path)
	if clean == string(filepath.Separator) || filepath.VolumeName(clean)+string(filepath.Separator) == clean {
		return New(ErrCodeInvalidExportDirectory, "refusing to export into the filesystem root")
	}
	return nil
}
