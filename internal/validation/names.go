// Package validation provides input validation for names crossing the
// upload boundary.
package validation

import (
	"fmt"
	"strings"
)

// ValidateFilename validates a bare filename (not a path) before it is sent
// as an upload name or joined into a local path.
//
// Returns an error if the filename:
//   - Is empty
//   - Contains path separators (/ or \)
//   - Is the literal ".."
//   - Contains null bytes
//
// Names like "foo..bar.txt" stay legal; only traversal shapes are rejected.
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %s", filename)
	}

	if strings.ContainsRune(filename, '/') || strings.ContainsRune(filename, '\\') {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}

	if filename == ".." {
		return fmt.Errorf("filename cannot be '..': %s", filename)
	}

	return nil
}

// ValidateCategory validates an upload category (a folder name from the
// document hierarchy) before it is placed into an upload URL.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("upload category cannot be empty")
	}
	if strings.ContainsAny(category, "/\\") {
		return fmt.Errorf("upload category cannot contain path separators: %s", category)
	}
	return nil
}
