package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// MaxLevels is the largest supported number of luminance levels. Levels are
// stored in a uint8, so it cannot grow past 255.
const MaxLevels = 255

// ValidatePath validates a local file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
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

// imageExtensions lists the sample formats the quantizer can decode.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// ValidateImagePath validates a path and checks its extension against the
// decodable image formats.
func ValidateImagePath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !imageExtensions[ext] {
		return New(ErrCodeInvalidPath, "unsupported image extension %q", ext)
	}
	return nil
}

// ValidateDimensions checks that the output width, height and tile size are
// all positive and that their product stays addressable.
func ValidateDimensions(width, height, tileSize int) error {
	if width <= 0 {
		return New(ErrCodeInvalidConfig, "output_width must be positive, got %d", width)
	}
	if height <= 0 {
		return New(ErrCodeInvalidConfig, "output_height must be positive, got %d", height)
	}
	if tileSize <= 0 {
		return New(ErrCodeInvalidConfig, "tile_size must be positive, got %d", tileSize)
	}
	const maxCells = 1 << 26
	w, h := int64(width)*int64(tileSize), int64(height)*int64(tileSize)
	if w*h > maxCells {
		return New(ErrCodeInvalidConfig, "output of %dx%d cells exceeds limit of %d", w, h, maxCells)
	}
	return nil
}

// ValidateLevels checks the number of luminance levels is in [1, MaxLevels].
func ValidateLevels(levels int) error {
	if levels <= 0 || levels > MaxLevels {
		return New(ErrCodeInvalidConfig, "luminance_levels must be in [1, %d], got %d", MaxLevels, levels)
	}
	return nil
}
