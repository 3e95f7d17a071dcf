// Package ranking merges scored items from every adapter into one ordered,
// deduplicated, truncated list.
package ranking

import (
	"sort"

	"dashboard-assistant-be/pkg/knowledge"
)

// Options for one ranking pass
type Options struct {
	Limit    int     // 0 means unbounded
	MinScore float64 // items scoring below are dropped
}

// Rank sorts by score (desc), then createdAt (newest first), then type and
// id so the order depends only on the set of items and never on the order
// adapters finished in. The first occurrence of each (type, id) survives.
func Rank(items []knowledge.ScoredItem, opts Options) []knowledge.ScoredItem {
	sorted := make([]knowledge.ScoredItem, 0, len(items))
	for _, it := range items {
		if it.Score < opts.MinScore {
			continue
		}
		sorted = append(sorted, it)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	seen := make(map[knowledge.ItemKey]bool, len(sorted))
	ranked := make([]knowledge.ScoredItem, 0, len(sorted))
	for _, it := range sorted {
		key := it.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		ranked = append(ranked, it)

		if opts.Limit > 0 && len(ranked) == opts.Limit {
			break
		}
	}
	return ranked
}

func less(a, b knowledge.ScoredItem) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	// Same key and same sort keys: fall back to content so duplicates with
	// differing payloads still resolve the same way every time.
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.Text < b.Text
}
