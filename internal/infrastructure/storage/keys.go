package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	// Maximum filename length
	MaxFilenameLength = 200

	// Default fallback filename
	DefaultFilename = "unnamed.jpg"
)

// Grouping selects the subdirectory layout an archive key is placed
// under.
type Grouping string

const (
	GroupingFlat      Grouping = "flat"
	GroupingDateYear  Grouping = "date-yyyy"
	GroupingDateMonth Grouping = "date-yyyy-mm"
	GroupingDateDay   Grouping = "date-yyyy-mm-dd"
)

// KeyGenerator builds storage keys for CBZ archives.
type KeyGenerator struct{}

// NewKeyGenerator creates a new storage key generator.
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{}
}

// GenerateArchiveKey builds the storage key for a gallery's CBZ,
// grouping it into a date-based subdirectory when configured.
// sanitizedName must already have had ArchiveSanitize applied.
func (g *KeyGenerator) GenerateArchiveKey(grouping Grouping, sanitizedName string, uploadTime time.Time) string {
	filename := sanitizedName + ".cbz"
	switch grouping {
	case GroupingDateYear:
		return path.Join(fmt.Sprintf("%04d", uploadTime.Year()), filename)
	case GroupingDateMonth:
		return path.Join(fmt.Sprintf("%04d", uploadTime.Year()), fmt.Sprintf("%02d", uploadTime.Month()), filename)
	case GroupingDateDay:
		return path.Join(fmt.Sprintf("%04d", uploadTime.Year()), fmt.Sprintf("%02d", uploadTime.Month()), fmt.Sprintf("%02d", uploadTime.Day()), filename)
	case GroupingFlat:
		fallthrough
	default:
		return filename
	}
}

// ValidateKey checks if a storage key is safe (prevents path traversal).
// Returns error if key contains:
// - Parent directory references (..)
// - Absolute paths (/)
// - Null bytes
// - A non-canonical path.
func (g *KeyGenerator) ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	if strings.Contains(key, "..") {
		return fmt.Errorf("%w: contains '..' path traversal", ErrPathTraversal)
	}

	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\") {
		return fmt.Errorf("%w: cannot be absolute path", ErrPathTraversal)
	}

	if strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: contains null byte", ErrInvalidKey)
	}

	if cleaned := path.Clean(key); cleaned != key {
		return fmt.Errorf("%w: path not canonical", ErrInvalidKey)
	}

	return nil
}

// SanitizeFilename removes dangerous characters from a filename.
// This is used for the original_filename field, not for storage keys.
func SanitizeFilename(filename string) string {
	// Remove path components
	filename = path.Base(filename)

	// Replace dangerous characters with safe ones
	sanitized := sanitizeCharacters(filename)

	// Ensure valid filename format
	return ensureValidFilename(sanitized)
}

// sanitizeCharacters replaces or removes unsafe characters from a filename.
func sanitizeCharacters(filename string) string {
	var builder strings.Builder
	for _, r := range filename {
		if isSafeCharacter(r) {
			builder.WriteRune(r)
		} else if r == ' ' {
			builder.WriteRune('_')
		}
		// Other characters are skipped
	}
	return builder.String()
}

// isSafeCharacter returns true if the character is safe for filenames.
func isSafeCharacter(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '.' || r == '-' || r == '_'
}

// ensureValidFilename ensures the filename has an extension and valid length
func ensureValidFilename(filename string) string {
	// Ensure the filename has an extension
	if !strings.Contains(filename, ".") {
		filename += ".jpg"
	}

	// Prevent empty filenames
	if filename == "" || filename == "." {
		return DefaultFilename
	}

	// Limit length
	if len(filename) > MaxFilenameLength {
		return truncateFilename(filename)
	}

	return filename
}

// truncateFilename shortens a filename while preserving its extension
func truncateFilename(filename string) string {
	ext := path.Ext(filename)
	maxNameLength := MaxFilenameLength - len(ext)
	return filename[:maxNameLength] + ext
}
