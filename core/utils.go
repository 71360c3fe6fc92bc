package core

import "strings"

// CleanString trims the whitespace around user input: codes, names and identifiers.
func CleanString(s string) string {
	return strings.TrimSpace(s)
}

// CleanStringOr is CleanString, falling back to fallback when s is blank.
// Partial updates use it to keep the stored value of omitted fields.
func CleanStringOr(s, fallback string) string {
	if s = CleanString(s); s != "" {
		return s
	}
	return fallback
}

// CleanStrings cleans every item and drops the blank ones; nil if none is left.
func CleanStrings(ss []string) []string {
	var cleaned []string
	for _, s := range ss {
		if s = CleanString(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}
