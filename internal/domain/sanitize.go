package domain

import (
	"regexp"
	"strings"
)

var nameStrip = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
var nameSpaces = regexp.MustCompile(`\s+`)

// SanitizeName makes a campaign or list name safe for use in URL paths on the
// remote service: trimmed, spaces collapsed to underscores, anything outside
// [a-zA-Z0-9_-] removed, lowercased.
func SanitizeName(name string) string {
	if name == "" {
		return ""
	}
	s := strings.TrimSpace(name)
	s = nameSpaces.ReplaceAllString(s, "_")
	s = nameStrip.ReplaceAllString(s, "")
	return strings.ToLower(s)
}
