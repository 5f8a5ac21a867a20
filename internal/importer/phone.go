package importer

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone reduces a raw phone cell to digits only, then prepends the
// prefix (country code, digits) unless the number already starts with it.
// Normalization is idempotent: feeding the output back in yields the same
// value.
func NormalizePhone(raw, prefix string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return ""
	}
	if prefix != "" && !strings.HasPrefix(digits, prefix) {
		digits = prefix + digits
	}
	return digits
}

// ExtractCandidates splits a phone cell that may encode several numbers.
// With a pattern, every match is a candidate. Without one, the cell is
// stripped of brackets and quotes and split on commas, which is the encoding
// the source data actually uses for multi-number cells, e.g.
// "[1234567890, 1234567891]".
func ExtractCandidates(cell string, pattern *regexp.Regexp) []string {
	if pattern != nil {
		return pattern.FindAllString(cell, -1)
	}

	cleaned := strings.NewReplacer("[", "", "]", "", "'", "", `"`, "").Replace(cell)
	parts := strings.Split(cleaned, ",")
	candidates := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			candidates = append(candidates, trimmed)
		}
	}
	return candidates
}
