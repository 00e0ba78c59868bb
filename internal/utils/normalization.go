package utils

import (
	"net/url"
	"strings"
)

// NormalizeWord lower-cases w and collapses inner whitespace.
func NormalizeWord(w string) string {
	return strings.Join(strings.Fields(strings.ToLower(w)), " ")
}

// NormalizeWords normalizes words, dropping blanks and duplicates while
// keeping first-seen order.
func NormalizeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		norm := NormalizeWord(w)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// SplitWords splits a comma or newline separated list.
func SplitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ';'
	})
}

// NormalizeWebsiteLink trims raw and reports whether it is an absolute
// http or https URL with a host.
func NormalizeWebsiteLink(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return raw, true
	}
	return "", false
}
