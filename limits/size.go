package limits

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSize indicates a size string that could not be parsed.
var ErrInvalidSize = errors.New("invalid size")

var sizeUnits = []struct {
	suffix string
	mul    float64
}{
	{"gb", 1 << 30},
	{"mb", 1 << 20},
	{"kb", 1 << 10},
	{"g", 1 << 30},
	{"m", 1 << 20},
	{"k", 1 << 10},
	{"b", 1},
}

// ParseSize parses a human size such as "4m", "512kb", "1.5k" or "1 << 20".
// The result must be positive.
func ParseSize(s string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}

	if strings.Contains(v, "<<") {
		return parseShift(v)
	}

	mul := 1.0
	for _, u := range sizeUnits {
		if strings.HasSuffix(v, u.suffix) {
			mul = u.mul
			v = strings.TrimSpace(strings.TrimSuffix(v, u.suffix))
			break
		}
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	n := int(f * mul)
	if n <= 0 {
		return 0, fmt.Errorf("%w: %q must be > 0", ErrInvalidSize, s)
	}
	return n, nil
}

// parseShift handles the "1 << n" form used in config files.
func parseShift(v string) (int, error) {
	parts := strings.SplitN(v, "<<", 2)
	base, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, v)
	}
	shift, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || shift < 0 || shift > 40 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, v)
	}
	n := base << shift
	if n <= 0 {
		return 0, fmt.Errorf("%w: %q must be > 0", ErrInvalidSize, v)
	}
	return n, nil
}

// FormatBytes renders n with two decimals and a binary unit, e.g. "4.00MB".
func FormatBytes(n float64) string {
	for _, u := range []string{"B", "KB", "MB", "GB", "TB"} {
		if n < 1024.0 {
			return fmt.Sprintf("%.2f%s", n, u)
		}
		n /= 1024.0
	}
	return fmt.Sprintf("%.2fPB", n)
}
