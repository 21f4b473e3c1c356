// Package slug derives the stable natural key used for idempotent upsert.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Feed-assigned ids sometimes arrive prefixed with the source name; the
// prefix is stripped so re-ingestion from a renamed feed keeps the same slug.
var idPrefixes = []string{"bazos-", "inzerat-", "ad-"}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// stripMarks decomposes accented characters and drops the combining marks,
// so "Přerově" becomes "Prerove".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make derives a slug from a listing title and its source-assigned id.
// Deterministic: the same (title, id) pair always yields the same slug.
func Make(title, externalID string) string {
	base := normalizeTitle(title)
	id := normalizeID(externalID)

	// A title that normalizes to nothing (all punctuation or non-Latin)
	// falls back to the bare id rather than a "-id" slug with a leading
	// hyphen.
	if base == "" {
		return id
	}
	if id == "" {
		return base
	}
	return base + "-" + id
}

func normalizeTitle(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))

	ascii, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		// Transform failures leave the input unusable for a URL slug;
		// keep only the ASCII subset of the original instead.
		ascii = lowered
	}

	hyphenated := nonAlnum.ReplaceAllString(ascii, "-")
	return strings.Trim(hyphenated, "-")
}

func normalizeID(externalID string) string {
	id := strings.TrimSpace(strings.ToLower(externalID))
	for _, prefix := range idPrefixes {
		if strings.HasPrefix(id, prefix) {
			id = strings.TrimPrefix(id, prefix)
			break
		}
	}
	return strings.Trim(nonAlnum.ReplaceAllString(id, "-"), "-")
}
