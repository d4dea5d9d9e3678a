package limits

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MinChunkSize is the smallest payload chunk in base64 characters (one group).
	MinChunkSize = 4

	// DefaultChunkSize is the default payload chunk in base64 characters.
	DefaultChunkSize = 4 * 1024 * 1024

	// MaxChunkSize is the largest payload chunk accepted for a single clipboard write.
	MaxChunkSize = 256 * 1024 * 1024

	// DefaultReadBlock is the block size used when reading source files.
	DefaultReadBlock = 1024 * 1024

	// MaxFileNameLength bounds the relative name carried in a frame header.
	// Names travel on a single header line, so anything larger is treated as garbage.
	MaxFileNameLength = 4096
)

var (
	// ErrChunkTooSmall indicates a chunk size below MinChunkSize.
	ErrChunkTooSmall = errors.New("chunk size too small")

	// ErrChunkTooLarge indicates a chunk size above MaxChunkSize.
	ErrChunkTooLarge = errors.New("chunk size too large")

	// ErrNameEmpty indicates an empty source name.
	ErrNameEmpty = errors.New("empty file name")

	// ErrNameTooLong indicates a source name longer than MaxFileNameLength.
	ErrNameTooLong = errors.New("file name too long")

	// ErrNameInvalid indicates a name that cannot be carried on a header line.
	ErrNameInvalid = errors.New("file name contains line breaks")
)

// ValidateChunkSize validates a payload chunk size in base64 characters.
// Returns an error with context including the actual and allowed sizes.
func ValidateChunkSize(n int) error {
	if n < MinChunkSize {
		return fmt.Errorf("%w: size %d below minimum %d", ErrChunkTooSmall, n, MinChunkSize)
	}
	if n > MaxChunkSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrChunkTooLarge, n, MaxChunkSize)
	}
	return nil
}

// AlignChunkSize rounds n down to a whole number of base64 groups so that every
// chunk decodes on its own. It never returns less than MinChunkSize.
func AlignChunkSize(n int) int {
	aligned := (n / 4) * 4
	if aligned < MinChunkSize {
		return MinChunkSize
	}
	return aligned
}

// ValidateFileName validates a source name before it is placed on a header line.
func ValidateFileName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if len(name) > MaxFileNameLength {
		return fmt.Errorf("%w: length %d exceeds limit %d", ErrNameTooLong, len(name), MaxFileNameLength)
	}
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("%w: %q", ErrNameInvalid, name)
	}
	return nil
}
