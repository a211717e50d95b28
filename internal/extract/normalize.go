package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const bom = "\ufeff"

// NormalizeHeader canonicalizes a CSV header cell: it strips a UTF-8 BOM (only
// from the first column, where spreadsheet exports put it), trims spaces and
// recomposes to NFC so that "é" typed two ways matches one declared column.
func NormalizeHeader(h string, first bool) string {
	if first {
		h = strings.TrimPrefix(h, bom)
	}
	return norm.NFC.String(strings.TrimSpace(h))
}

// NormalizeValue trims a text value and folds non-breaking spaces, the two
// artifacts most often left behind by spreadsheet exports.
func NormalizeValue(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(norm.NFC.String(s))
}

// FoldName converts arbitrary header text into a lowercase ASCII identifier:
//  1. lowercase
//  2. strip accents (NFD → remove Mn → NFC)
//  3. keep [a-z0-9_]; convert space/dash/dot to underscore; drop others
//  4. fallback to "col" if empty
func FoldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, bom)))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}
