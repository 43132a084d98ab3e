package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxIDLength bounds element identifiers read from snapshots.
const maxIDLength = 256

// ValidateElementID validates an element identifier from a snapshot.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - Maximum length of 256 characters
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidSnapshot, "element id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidSnapshot, "element id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSnapshot, "element id contains invalid control characters")
		}
	}

	return nil
}

// ValidateDimensions checks that a width/height pair is usable geometry.
// NaN and infinite values are rejected alongside negative sizes.
func ValidateDimensions(id string, width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidGeometry, "element %s has non-finite size", id)
		}
	}
	if width < 0 || height < 0 {
		return New(ErrCodeInvalidGeometry, "element %s has negative size %gx%g", id, width, height)
	}
	return nil
}

// ValidatePath validates an input or output file path supplied on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateFormat checks an output format against the allowed set.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(allowed, ", "))
}
