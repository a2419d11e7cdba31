package sequence

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumber returns a document number like "JE-2025-00001".
// An empty prefix yields "2025-00001".
func FormatNumber(prefix string, year int, seq int64) string {
	if prefix == "" {
		return fmt.Sprintf("%04d-%05d", year, seq)
	}
	return fmt.Sprintf("%s-%04d-%05d", prefix, year, seq)
}

// ParseNumber parses "JE-2025-00001" into prefix, year and sequence.
// The prefix may itself contain dashes.
func ParseNumber(number string) (prefix string, year int, seq int64, err error) {
	i := strings.LastIndex(number, "-")
	if i < 0 {
		return "", 0, 0, fmt.Errorf("invalid document number format: %q", number)
	}
	seq, err = strconv.ParseInt(number[i+1:], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid sequence in document number %q: %w", number, err)
	}

	rest := number[:i]
	j := strings.LastIndex(rest, "-")
	yearPart := rest
	if j >= 0 {
		prefix, yearPart = rest[:j], rest[j+1:]
	}
	if len(yearPart) != 4 {
		return "", 0, 0, fmt.Errorf("invalid year in document number %q", number)
	}
	year, err = strconv.Atoi(yearPart)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid year in document number %q: %w", number, err)
	}
	return prefix, year, seq, nil
}
