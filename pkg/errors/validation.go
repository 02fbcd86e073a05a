package errors

import (
	"strings"
	"unicode"
)

// ValidateImageID validates an image identifier for safety and correctness.
// IDs end up in cache keys and URL paths, so the validation is intentionally
// conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - No path traversal sequences
//   - Maximum length of 256 characters
func ValidateImageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "image id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "image id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "image id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "image id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a gallery directory or file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == 0 || (unicode.IsControl(r) && r != '\t') {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain traversal sequences")
		}
	}

	return nil
}

// ValidateThumbSize validates requested thumbnail dimensions.
// Dimensions must be positive and bounded to keep decode cost predictable.
func ValidateThumbSize(w, h int) error {
	const maxDim = 4096
	if w <= 0 || h <= 0 {
		return New(ErrCodeInvalidInput, "thumbnail dimensions must be positive, got %dx%d", w, h)
	}
	if w > maxDim || h > maxDim {
		return New(ErrCodeInvalidInput, "thumbnail dimensions too large (max %d), got %dx%d", maxDim, w, h)
	}
	return nil
}
