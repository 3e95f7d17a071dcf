// Package snippet cuts a bounded excerpt around the best query match in a
// record's text. All arithmetic is in characters (runes), so multi-byte
// code points are never split.
package snippet

import (
	"strings"
	"unicode"

	"dashboard-assistant-be/pkg/knowledge"
)

const Ellipsis = "..."

var ellipsisLen = len([]rune(Ellipsis))

// Options bounds the excerpt
type Options struct {
	Window    int // characters kept around the match
	MaxLength int // hard upper bound of the returned string, ellipses included
}

// DefaultOptions returns default snippet sizing
func DefaultOptions() Options {
	return Options{
		Window:    150,
		MaxLength: 200,
	}
}

// Extract locates the query in text and returns a window centred on it.
// Lookup order: the query exactly as typed, the query case-insensitively,
// then the earliest occurrence of any query word. Without a match the text
// prefix is returned. The result never exceeds opts.MaxLength characters.
func Extract(text, query string, opts Options) string {
	if opts.MaxLength <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	start, length := locate(runes, query)
	if start < 0 {
		return prefix(runes, opts.MaxLength)
	}
	return window(runes, start, length, opts)
}

func locate(runes []rune, query string) (int, int) {
	trimmed := []rune(strings.TrimSpace(query))
	if len(trimmed) == 0 {
		return -1, 0
	}
	if i := indexRunes(runes, trimmed); i >= 0 {
		return i, len(trimmed)
	}

	lowered := lowerRunes(runes)
	full := lowerRunes([]rune(knowledge.NormalizeQuery(query)))
	if i := indexRunes(lowered, full); i >= 0 {
		return i, len(full)
	}

	best, bestLen := -1, 0
	for _, word := range knowledge.Keywords(query) {
		w := []rune(word)
		if i := indexRunes(lowered, w); i >= 0 && (best < 0 || i < best) {
			best, bestLen = i, len(w)
		}
	}
	return best, bestLen
}

func window(runes []rune, start, length int, opts Options) string {
	n := len(runes)

	size := opts.Window
	if size <= 0 || size > opts.MaxLength {
		size = opts.MaxLength
	}
	if n <= size {
		return string(runes)
	}

	// Room for both ellipses inside MaxLength.
	if length > size {
		size = length
	}
	if limit := opts.MaxLength - 2*ellipsisLen; size > limit {
		size = limit
	}
	if size <= 0 {
		return string(runes[:min(n, opts.MaxLength)])
	}

	from := start + length/2 - size/2
	if from < 0 {
		from = 0
	}
	if from+size > n {
		from = n - size
	}
	to := from + size

	var sb strings.Builder
	if from > 0 {
		sb.WriteString(Ellipsis)
	}
	sb.WriteString(string(runes[from:to]))
	if to < n {
		sb.WriteString(Ellipsis)
	}
	return sb.String()
}

func prefix(runes []rune, maxLength int) string {
	if len(runes) <= maxLength {
		return string(runes)
	}
	if maxLength <= ellipsisLen {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-ellipsisLen]) + Ellipsis
}

// lowerRunes keeps a 1:1 rune mapping so offsets stay valid in the original
func lowerRunes(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
