package knowledge

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"do": {}, "for": {}, "from": {}, "how": {}, "i": {}, "in": {}, "is": {}, "it": {},
	"me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "show": {}, "the": {}, "this": {},
	"to": {}, "was": {}, "we": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "with": {}, "you": {}, "your": {}, "about": {}, "any": {}, "all": {},
}

// Keywords splits a query into distinct lower-cased words, in first-seen
// order, dropping stop words and single characters.
func Keywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		words = append(words, f)
	}
	return words
}

// NormalizeQuery trims and collapses internal whitespace
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
