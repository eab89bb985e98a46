// Package normalize provides pure functions for canonical tag forms.
//
// Tags are free-text input (comma-separated in the report form) with
// inconsistent marker usage and whitespace. Canonical display form
// carries exactly one leading marker; equality and filtering use a
// folded form with the marker stripped.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Marker is the display prefix every canonical tag carries.
const Marker = "#"

// Tag is a canonicalized tag: the display form plus the folded form
// used for equality and filtering.
type Tag struct {
	Display string // exactly one leading marker, original casing preserved
	Key     string // marker stripped, NFKC-folded, lowercased
}

// Canonicalize normalizes a raw tag into display and compare forms.
// Returns ok=false when the input is empty after trimming and marker
// stripping.
func Canonicalize(raw string) (Tag, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Tag{}, false
	}

	// Strip any run of leading markers so "##go" and "#go" collapse.
	// NFKC first, so the full-width marker counts as a marker too.
	folded := norm.NFKC.String(s)
	body := strings.TrimLeft(folded, Marker)
	body = strings.TrimSpace(body)
	if body == "" {
		return Tag{}, false
	}

	// Display form keeps the caller's casing of the body but always
	// carries exactly one marker.
	display := strings.TrimSpace(strings.TrimLeft(s, Marker+"＃"))
	if display == "" {
		display = body
	}

	return Tag{
		Display: Marker + display,
		Key:     Key(raw),
	}, true
}

// Key returns the compare form of a raw or display tag: trimmed,
// NFKC-folded, marker stripped, lowercased. Empty input yields "".
func Key(raw string) string {
	s := norm.NFKC.String(strings.TrimSpace(raw))
	s = strings.TrimLeft(s, Marker)
	return strings.ToLower(strings.TrimSpace(s))
}

// Dedupe canonicalizes each raw tag and removes duplicates by compare
// form. The first occurrence wins for display casing; order of first
// occurrence is preserved.
func Dedupe(raws []string) []string {
	seen := make(map[string]bool, len(raws))
	var out []string
	for _, raw := range raws {
		tag, ok := Canonicalize(raw)
		if !ok {
			continue
		}
		if seen[tag.Key] {
			continue
		}
		seen[tag.Key] = true
		out = append(out, tag.Display)
	}
	return out
}

// SplitAndDedupe parses comma-separated free-text tag input into the
// canonical deduplicated display list.
func SplitAndDedupe(input string) []string {
	return Dedupe(strings.Split(input, ","))
}

// DeriveVocabulary flattens the tag sets of all reports into one
// deduplicated display list. Used in local mode, where the visible
// tag vocabulary is always recomputed from current reports.
func DeriveVocabulary(tagSets ...[]string) []string {
	var all []string
	for _, tags := range tagSets {
		all = append(all, tags...)
	}
	return Dedupe(all)
}

// Equal reports whether two tags match under the compare form.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}
