// Package domain contains the core business entities for Stockroom.
package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes to NFD, drops combining marks, and recomposes.
// Combined with lowercasing this approximates Unicode collation strength 2:
// letters compare equal across case and most accent differences.
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold returns the canonical uniqueness key for a username or title.
// "Crème" and "creme" fold to the same key. The folded value is persisted
// next to the display value and carries the unique index, so the database
// remains the authoritative duplicate check under concurrent writes.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		// Transform failures only occur on invalid UTF-8; fall back to
		// plain case folding so the key is still deterministic.
		folded = s
	}
	return strings.ToLower(folded)
}
