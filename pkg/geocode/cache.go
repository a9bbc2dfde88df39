package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips diacritics so "Kraków" and "Krakow" share a cache
// entry. Location strings in loan documents mix both spellings.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// cacheKey returns SHA-256 hex of the normalized, diacritics-folded query.
func cacheKey(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if folded, _, err := transform.String(foldTransformer, normalized); err == nil {
		normalized = folded
	}
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}
