// Package matcher provides fuzzy name comparison for company and person
// names pulled from noisy search results.
package matcher

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// legal suffixes stripped by CleanName, longest first so "pvt. ltd."
// wins over "ltd.".
var legalSuffixes = []string{
	" private limited",
	" pvt. ltd.",
	" pvt ltd",
	" limited",
	" ltd.",
	" ltd",
	" inc.",
	" inc",
	" corp.",
	" corp",
	" llc",
	" gmbh",
}

func normalize(s string) string {
	return strings.TrimSpace(foldCaser.String(s))
}

// Score returns a token-set similarity between two strings on a 0..100
// scale. It is symmetric and insensitive to case, word order, and
// duplicated tokens.
func Score(a, b string) int {
	return fuzzy.TokenSetRatio(normalize(a), normalize(b))
}

// PartialScore returns a partial token-set similarity, tolerant of one
// string being embedded inside a longer one. Used when matching an entity
// name against a full page title or snippet.
func PartialScore(a, b string) int {
	return fuzzy.PartialTokenSetRatio(normalize(a), normalize(b))
}

// CleanName strips a trailing legal suffix from a company name, so
// "Acme Solutions Pvt Ltd" and "Acme Solutions" compare as the same
// entity. Only one suffix is removed.
func CleanName(name string) string {
	n := normalize(name)
	for _, suf := range legalSuffixes {
		if strings.HasSuffix(n, suf) {
			n = strings.TrimSpace(strings.TrimSuffix(n, suf))
			break
		}
	}
	return n
}
