// Package fingerprint derives the canonical cache key for a report request.
//
// Two requests that are semantically equivalent after normalization must
// always produce the identical fingerprint: the key is the load-bearing
// invariant for both cache lookups and billing idempotency.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
)

// Fields carries the normalized request fields behind a fingerprint. Subject
// keeps its display casing; the key is always computed from the normalized
// forms.
type Fields struct {
	Subject string
	Team    string
	League  string
}

// NormalizeName canonicalizes a subject name for comparison and indexing:
// transliterate to ASCII, lowercase, strip punctuation, collapse whitespace.
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Punctuation is a word boundary, not a deletion: "O'Neal" must
	// split into "o neal" rather than fuse into "oneal". slug.Make then
	// transliterates and lowercases, with hyphens standing in for the
	// remaining whitespace.
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.FieldsFunc(slug.Make(s), func(r rune) bool {
		return r == '-'
	}), " ")
}

// normalizeField trims, collapses whitespace and lowercases team/league
// values. Empty or whitespace-only input collapses to the empty-string
// sentinel so "no team specified" is a stable, distinct key.
func normalizeField(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Normalize computes the canonical fingerprint for a request. The key is the
// JSON serialization of the normalized field map; encoding/json writes map
// keys in lexicographic order, so field order can never affect the key.
func Normalize(subject, team, league string) string {
	fields := map[string]string{
		"subject": NormalizeName(subject),
		"team":    normalizeField(team),
		"league":  normalizeField(league),
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		// A map[string]string cannot fail to marshal.
		panic(err)
	}
	return string(raw)
}

// Hash returns a short stable digest of a fingerprint, used where the full
// key is too long for an identifier (ledger idempotency keys).
func Hash(fp string) string {
	sum := sha256.Sum256([]byte(fp))
	return hex.EncodeToString(sum[:16])
}

// DisplaySubject trims and collapses whitespace while preserving casing for
// presentation.
func DisplaySubject(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
